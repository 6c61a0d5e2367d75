package pipeline

import "context"

// TextPipeline is the fallback for any content type not otherwise
// recognized: no transformation.
func TextPipeline() *Pipeline {
	return &Pipeline{
		Name:   "text",
		Stages: []Middleware{stagePassThrough},
	}
}

func stagePassThrough(_ context.Context, pc *Context) error {
	pc.Text = string(pc.Bytes)
	return nil
}
