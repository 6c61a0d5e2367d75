package config

import (
	"fmt"
	"log/slog"

	pkgconfig "docsindexer/internal/pkg/config"
)

// SplitterSection controls the two-phase content splitter (spec.md §4.2,
// §8). PreferredChunkSize is the Phase 2 optimizer's soft target;
// MaxChunkSize is the hard ceiling no chunk may exceed.
type SplitterSection struct {
	PreferredChunkSize int `yaml:"preferredChunkSize"`
	MaxChunkSize       int `yaml:"maxChunkSize"`
	MinChunkSize       int `yaml:"minChunkSize"`
}

func defaultSplitterSection() SplitterSection {
	return SplitterSection{
		PreferredChunkSize: 1500,
		MaxChunkSize:       3000,
		MinChunkSize:       300,
	}
}

func (s *SplitterSection) Validate() error {
	var errs []error
	if s.PreferredChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("preferredChunkSize: must be positive, got %d", s.PreferredChunkSize))
	}
	if s.MaxChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("maxChunkSize: must be positive, got %d", s.MaxChunkSize))
	}
	if s.MinChunkSize < 0 {
		errs = append(errs, fmt.Errorf("minChunkSize: must be non-negative, got %d", s.MinChunkSize))
	}
	if s.PreferredChunkSize > s.MaxChunkSize {
		errs = append(errs, fmt.Errorf("preferredChunkSize (%d) must not exceed maxChunkSize (%d)", s.PreferredChunkSize, s.MaxChunkSize))
	}
	if s.MinChunkSize > s.PreferredChunkSize {
		errs = append(errs, fmt.Errorf("minChunkSize (%d) must not exceed preferredChunkSize (%d)", s.MinChunkSize, s.PreferredChunkSize))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%v", errs)
	}
	return nil
}

func (s *SplitterSection) applyEnvOverlay(logger *slog.Logger) {
	logWarnings := func(result pkgconfig.ConfigLoadResult) {
		for _, w := range result.Warnings {
			logger.Warn("configuration fallback", "detail", w)
		}
	}

	r := pkgconfig.LoadEnvInt("DOCS_MCP_SPLITTER_PREFERREDCHUNKSIZE", s.PreferredChunkSize,
		func(v int) error { return pkgconfig.ValidateIntRange(v, 1, 1<<20) })
	logWarnings(r)
	s.PreferredChunkSize = r.Value.(int)

	r = pkgconfig.LoadEnvInt("DOCS_MCP_SPLITTER_MAXCHUNKSIZE", s.MaxChunkSize,
		func(v int) error { return pkgconfig.ValidateIntRange(v, 1, 1<<20) })
	logWarnings(r)
	s.MaxChunkSize = r.Value.(int)

	r = pkgconfig.LoadEnvInt("DOCS_MCP_SPLITTER_MINCHUNKSIZE", s.MinChunkSize, nil)
	logWarnings(r)
	s.MinChunkSize = r.Value.(int)
}
