package config

import (
	"fmt"
	"log/slog"

	pkgconfig "docsindexer/internal/pkg/config"
)

// AssemblySection controls neighborhood assembly around a search hit
// (spec.md §4.5's "Neighborhood assembly" subsection, enumerated as
// distinct config knobs in §6).
type AssemblySection struct {
	// MaxChunkDistance bounds how many sort_order positions separate a child
	// chunk from the hit before it's no longer pulled in.
	MaxChunkDistance int `yaml:"maxChunkDistance"`

	// MaxParentChainDepth bounds how many levels of parent chunks (path
	// prefix, ascending) are walked up from a hit.
	MaxParentChainDepth int `yaml:"maxParentChainDepth"`

	ChildLimit               int `yaml:"childLimit"`
	PrecedingSiblingsLimit   int `yaml:"precedingSiblingsLimit"`
	SubsequentSiblingsLimit  int `yaml:"subsequentSiblingsLimit"`
}

func defaultAssemblySection() AssemblySection {
	return AssemblySection{
		MaxChunkDistance:        5,
		MaxParentChainDepth:     3,
		ChildLimit:              5,
		PrecedingSiblingsLimit:  2,
		SubsequentSiblingsLimit: 2,
	}
}

func (a *AssemblySection) Validate() error {
	var errs []error
	if a.MaxChunkDistance < 0 {
		errs = append(errs, fmt.Errorf("maxChunkDistance: must be non-negative, got %d", a.MaxChunkDistance))
	}
	if a.MaxParentChainDepth < 0 {
		errs = append(errs, fmt.Errorf("maxParentChainDepth: must be non-negative, got %d", a.MaxParentChainDepth))
	}
	if a.ChildLimit < 0 {
		errs = append(errs, fmt.Errorf("childLimit: must be non-negative, got %d", a.ChildLimit))
	}
	if a.PrecedingSiblingsLimit < 0 {
		errs = append(errs, fmt.Errorf("precedingSiblingsLimit: must be non-negative, got %d", a.PrecedingSiblingsLimit))
	}
	if a.SubsequentSiblingsLimit < 0 {
		errs = append(errs, fmt.Errorf("subsequentSiblingsLimit: must be non-negative, got %d", a.SubsequentSiblingsLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%v", errs)
	}
	return nil
}

func (a *AssemblySection) applyEnvOverlay(logger *slog.Logger) {
	logWarnings := func(result pkgconfig.ConfigLoadResult) {
		for _, w := range result.Warnings {
			logger.Warn("configuration fallback", "detail", w)
		}
	}

	r := pkgconfig.LoadEnvInt("DOCS_MCP_ASSEMBLY_MAXCHUNKDISTANCE", a.MaxChunkDistance,
		func(v int) error { return pkgconfig.ValidateIntRange(v, 0, 1000) })
	logWarnings(r)
	a.MaxChunkDistance = r.Value.(int)

	r = pkgconfig.LoadEnvInt("DOCS_MCP_ASSEMBLY_MAXPARENTCHAINDEPTH", a.MaxParentChainDepth,
		func(v int) error { return pkgconfig.ValidateIntRange(v, 0, 1000) })
	logWarnings(r)
	a.MaxParentChainDepth = r.Value.(int)

	r = pkgconfig.LoadEnvInt("DOCS_MCP_ASSEMBLY_CHILDLIMIT", a.ChildLimit,
		func(v int) error { return pkgconfig.ValidateIntRange(v, 0, 1000) })
	logWarnings(r)
	a.ChildLimit = r.Value.(int)

	r = pkgconfig.LoadEnvInt("DOCS_MCP_ASSEMBLY_PRECEDINGSIBLINGSLIMIT", a.PrecedingSiblingsLimit,
		func(v int) error { return pkgconfig.ValidateIntRange(v, 0, 1000) })
	logWarnings(r)
	a.PrecedingSiblingsLimit = r.Value.(int)

	r = pkgconfig.LoadEnvInt("DOCS_MCP_ASSEMBLY_SUBSEQUENTSIBLINGSLIMIT", a.SubsequentSiblingsLimit,
		func(v int) error { return pkgconfig.ValidateIntRange(v, 0, 1000) })
	logWarnings(r)
	a.SubsequentSiblingsLimit = r.Value.(int)
}
