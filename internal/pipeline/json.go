package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// JSONPipeline validates structure and passes the content type through to
// the splitter; the splitter itself does the property-path-aware chunking
// (splitter/json.go) using the same streaming json.Decoder.Token approach.
func JSONPipeline() *Pipeline {
	return &Pipeline{
		Name:   "json",
		Stages: []Middleware{stageValidateJSON},
	}
}

func stageValidateJSON(_ context.Context, pc *Context) error {
	dec := json.NewDecoder(bytes.NewReader(pc.Bytes))
	for {
		if _, err := dec.Token(); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("invalid JSON: %w", err)
		}
	}
	pc.Text = string(pc.Bytes)
	return nil
}
