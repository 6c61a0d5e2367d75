package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"docsindexer/internal/config"
)

// fakeEmbedder returns deterministic, hash-based vectors so tests can
// exercise the vector path without a real provider. Its vectors are not
// meaningfully similar to one another; tests that need specific similarity
// relationships construct a Store with a dimension-aware fake directly.
type fakeEmbedder struct {
	dimension int
	available bool
	vectors   map[string][]float32 // exact-text overrides
}

func newFakeEmbedder(dim int) *fakeEmbedder {
	return &fakeEmbedder{dimension: dim, available: true, vectors: map[string][]float32{}}
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
			continue
		}
		out[i] = hashVector(t, f.dimension)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return f.dimension }
func (f *fakeEmbedder) Available() bool { return f.available }

// hashVector derives a cheap, deterministic pseudo-embedding from text so
// identical inputs always embed identically within a test run.
func hashVector(text string, dim int) []float32 {
	v := make([]float32, dim)
	h := uint32(2166136261)
	for i := range v {
		for _, b := range []byte(text) {
			h ^= uint32(b)
			h *= 16777619
		}
		v[i] = float32(h%1000) / 1000.0
	}
	return v
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func openTestStore(t *testing.T, embedder *fakeEmbedder) *Store {
	t.Helper()

	cfg := config.Default()
	cfg.Store.Path = ":memory:"

	if embedder == nil {
		embedder = newFakeEmbedder(cfg.Embed.Dimension)
		embedder.available = false
	}

	s, err := Open(cfg.Store, cfg.Search, cfg.Assembly, cfg.Embed, embedder, testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
