package config

import (
	"fmt"
	"log/slog"

	pkgconfig "docsindexer/internal/pkg/config"
)

// EmbedSection controls the embedding provider (spec.md §4.5's embedding
// generation subsection). Provider "noop" disables vector search entirely
// but leaves FTS-only search functional.
type EmbedSection struct {
	Provider  string `yaml:"provider"` // "openai", "anthropic", "noop"
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`

	// BatchMaxChunks and BatchMaxChars cap a single provider request; a
	// batch exceeding either limit is split and retried recursively.
	BatchMaxChunks int `yaml:"batchMaxChunks"`
	BatchMaxChars  int `yaml:"batchMaxChars"`
}

func defaultEmbedSection() EmbedSection {
	return EmbedSection{
		Provider:       "noop",
		Model:          "text-embedding-3-small",
		Dimension:      1536,
		BatchMaxChunks: 100,
		BatchMaxChars:  300000,
	}
}

func (e *EmbedSection) Validate() error {
	var errs []error
	switch e.Provider {
	case "openai", "anthropic", "noop":
	default:
		errs = append(errs, fmt.Errorf("provider: must be one of openai, anthropic, noop, got %q", e.Provider))
	}
	if e.Dimension <= 0 {
		errs = append(errs, fmt.Errorf("dimension: must be positive, got %d", e.Dimension))
	}
	if e.BatchMaxChunks <= 0 {
		errs = append(errs, fmt.Errorf("batchMaxChunks: must be positive, got %d", e.BatchMaxChunks))
	}
	if e.BatchMaxChars <= 0 {
		errs = append(errs, fmt.Errorf("batchMaxChars: must be positive, got %d", e.BatchMaxChars))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%v", errs)
	}
	return nil
}

func (e *EmbedSection) applyEnvOverlay(logger *slog.Logger) {
	e.Provider = pkgconfig.LoadEnvString("DOCS_MCP_EMBED_PROVIDER", e.Provider)
	e.Model = pkgconfig.LoadEnvString("DOCS_MCP_EMBED_MODEL", e.Model)

	r := pkgconfig.LoadEnvInt("DOCS_MCP_EMBED_DIMENSION", e.Dimension,
		func(v int) error { return pkgconfig.ValidateIntRange(v, 1, 1<<16) })
	for _, w := range r.Warnings {
		logger.Warn("configuration fallback", "detail", w)
	}
	e.Dimension = r.Value.(int)

	r = pkgconfig.LoadEnvInt("DOCS_MCP_EMBED_BATCHMAXCHUNKS", e.BatchMaxChunks, nil)
	for _, w := range r.Warnings {
		logger.Warn("configuration fallback", "detail", w)
	}
	e.BatchMaxChunks = r.Value.(int)

	r = pkgconfig.LoadEnvInt("DOCS_MCP_EMBED_BATCHMAXCHARS", e.BatchMaxChars, nil)
	for _, w := range r.Warnings {
		logger.Warn("configuration fallback", "detail", w)
	}
	e.BatchMaxChars = r.Value.(int)
}
