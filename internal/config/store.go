package config

import (
	"fmt"
	"log/slog"

	pkgconfig "docsindexer/internal/pkg/config"
	envconfig "docsindexer/pkg/config"
)

// StoreSection controls the embedded store (spec.md §4.5).
type StoreSection struct {
	// Path is the on-disk SQLite file path, or ":memory:" for an ephemeral
	// store (tests, one-shot scrapes).
	Path string `yaml:"path"`

	// BusyTimeoutMs is forwarded to modernc.org/sqlite's busy_timeout
	// pragma so concurrent writers back off instead of failing immediately.
	BusyTimeoutMs int `yaml:"busyTimeoutMs"`
}

func defaultStoreSection() StoreSection {
	return StoreSection{
		Path:          "docsindexer.db",
		BusyTimeoutMs: 5000,
	}
}

func (s *StoreSection) Validate() error {
	if s.Path == "" {
		return fmt.Errorf("path: must not be empty")
	}
	if err := pkgconfig.ValidateIntRange(s.BusyTimeoutMs, 0, 600000); err != nil {
		return fmt.Errorf("busyTimeoutMs: %w", err)
	}
	return nil
}

func (s *StoreSection) applyEnvOverlay(logger *slog.Logger) {
	s.Path = pkgconfig.LoadEnvString("DOCS_MCP_STORE_PATH", s.Path)

	r := pkgconfig.LoadEnvInt("DOCS_MCP_STORE_BUSYTIMEOUTMS", s.BusyTimeoutMs,
		func(v int) error { return pkgconfig.ValidateIntRange(v, 0, 600000) })
	for _, w := range r.Warnings {
		logger.Warn("configuration fallback", "detail", w)
	}
	s.BusyTimeoutMs = r.Value.(int)
}

// SearchSection controls hybrid search ranking (spec.md §4.5's hybrid
// search subsection).
type SearchSection struct {
	// WeightFTS and WeightVector are the Reciprocal Rank Fusion weights:
	// score = WeightFTS/(60+rankFTS) + WeightVector/(60+rankVector).
	WeightFTS    float64 `yaml:"weightFts"`
	WeightVector float64 `yaml:"weightVector"`

	// RRFConstant is the "60" in the RRF formula above.
	RRFConstant int `yaml:"rrfConstant"`

	DefaultLimit int `yaml:"defaultLimit"`
	MaxLimit     int `yaml:"maxLimit"`

	// OverfetchFactor multiplies limit for each ranked sub-query (FTS, and
	// vector again by VectorMultiplier) before Reciprocal Rank Fusion
	// trims back down to limit.
	OverfetchFactor  int `yaml:"overfetchFactor"`
	VectorMultiplier int `yaml:"vectorMultiplier"`
}

func defaultSearchSection() SearchSection {
	return SearchSection{
		WeightFTS:          1.0,
		WeightVector:       1.0,
		RRFConstant:        60,
		DefaultLimit:     10,
		MaxLimit:         100,
		OverfetchFactor:  3,
		VectorMultiplier: 2,
	}
}

func (s *SearchSection) Validate() error {
	var errs []error
	if s.WeightFTS < 0 {
		errs = append(errs, fmt.Errorf("weightFts: must be non-negative, got %v", s.WeightFTS))
	}
	if s.WeightVector < 0 {
		errs = append(errs, fmt.Errorf("weightVector: must be non-negative, got %v", s.WeightVector))
	}
	if s.WeightFTS == 0 && s.WeightVector == 0 {
		errs = append(errs, fmt.Errorf("weightFts and weightVector must not both be zero"))
	}
	if s.RRFConstant <= 0 {
		errs = append(errs, fmt.Errorf("rrfConstant: must be positive, got %d", s.RRFConstant))
	}
	if s.DefaultLimit <= 0 || s.DefaultLimit > s.MaxLimit {
		errs = append(errs, fmt.Errorf("defaultLimit: must be between 1 and maxLimit (%d), got %d", s.MaxLimit, s.DefaultLimit))
	}
	if s.MaxLimit <= 0 {
		errs = append(errs, fmt.Errorf("maxLimit: must be positive, got %d", s.MaxLimit))
	}
	if s.OverfetchFactor <= 0 {
		errs = append(errs, fmt.Errorf("overfetchFactor: must be positive, got %d", s.OverfetchFactor))
	}
	if s.VectorMultiplier <= 0 {
		errs = append(errs, fmt.Errorf("vectorMultiplier: must be positive, got %d", s.VectorMultiplier))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%v", errs)
	}
	return nil
}

func (s *SearchSection) applyEnvOverlay(logger *slog.Logger) {
	logWarnings := func(result pkgconfig.ConfigLoadResult) {
		for _, w := range result.Warnings {
			logger.Warn("configuration fallback", "detail", w)
		}
	}

	s.WeightFTS = envconfig.GetEnvFloat("DOCS_MCP_SEARCH_WEIGHTFTS", s.WeightFTS)
	s.WeightVector = envconfig.GetEnvFloat("DOCS_MCP_SEARCH_WEIGHTVEC", s.WeightVector)

	r := pkgconfig.LoadEnvInt("DOCS_MCP_SEARCH_RRFCONSTANT", s.RRFConstant,
		func(v int) error {
			if v <= 0 {
				return fmt.Errorf("must be positive")
			}
			return nil
		})
	logWarnings(r)
	s.RRFConstant = r.Value.(int)

	r = pkgconfig.LoadEnvInt("DOCS_MCP_SEARCH_DEFAULTLIMIT", s.DefaultLimit, nil)
	logWarnings(r)
	s.DefaultLimit = r.Value.(int)

	r = pkgconfig.LoadEnvInt("DOCS_MCP_SEARCH_MAXLIMIT", s.MaxLimit, nil)
	logWarnings(r)
	s.MaxLimit = r.Value.(int)

	r = pkgconfig.LoadEnvInt("DOCS_MCP_SEARCH_OVERFETCHFACTOR", s.OverfetchFactor, nil)
	logWarnings(r)
	s.OverfetchFactor = r.Value.(int)

	r = pkgconfig.LoadEnvInt("DOCS_MCP_SEARCH_VECTORMULTIPLIER", s.VectorMultiplier, nil)
	logWarnings(r)
	s.VectorMultiplier = r.Value.(int)
}
