package embed

import "context"

// Noop is used when no embedding provider is configured or its credentials
// are unavailable: the store remains usable but every search is FTS-only
// (spec.md §4.5).
type Noop struct {
	dimension int
}

// NewNoop builds a Noop embedder reporting the given dimension (used only
// so callers that pad unconditionally don't need a separate code path).
func NewNoop(dimension int) *Noop {
	return &Noop{dimension: dimension}
}

func (n *Noop) Embed(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}

func (n *Noop) Dimension() int { return n.dimension }

func (n *Noop) Available() bool { return false }
