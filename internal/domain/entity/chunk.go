package entity

import "docsindexer/internal/domain/chunktype"

// Chunk is a retrievable unit of a page's content: a contiguous span of the
// processed Markdown, sized by the splitter and positioned within the
// page's section hierarchy. Chunks are what both the FTS and vector indexes
// are built over; a Page owns an ordered sequence of them.
type Chunk struct {
	ID     int64
	PageID int64

	// SortOrder is the chunk's position within the page, starting at 0. Used
	// to reconstruct document order and to find a hit's siblings during
	// neighborhood assembly.
	SortOrder int

	Content string
	Types   chunktype.Set

	// SectionLevel is the Markdown heading depth the chunk falls under (1 for
	// an H1 section, 0 if the page has no heading above it yet).
	SectionLevel int

	// SectionPath is a '/'-joined breadth-first trail of heading titles down
	// to this chunk's section, e.g. "Guides/Authentication/OAuth". Prefix
	// matching on this path drives parent/child neighborhood lookups.
	SectionPath string

	// Embedding is the chunk's vector representation, or nil if embeddings
	// are disabled (noop provider) or generation failed for this chunk.
	// Every non-nil embedding across a store has the same length (padded to
	// the configured dimension by internal/embed).
	Embedding []float32
}

// IsStructuralOnly reports whether the chunk carries no Content tag and so
// should be excluded from search result sets, though it still participates
// in neighborhood assembly around a content hit.
func (c *Chunk) IsStructuralOnly() bool {
	return c.Types.SearchableOnly()
}

// Validate checks that the chunk is well-formed before it is persisted.
func (c *Chunk) Validate() error {
	if c.SortOrder < 0 {
		return &ValidationError{Field: "sort_order", Message: "sort_order must be non-negative"}
	}
	if c.SectionLevel < 0 {
		return &ValidationError{Field: "section_level", Message: "section_level must be non-negative"}
	}
	return nil
}
