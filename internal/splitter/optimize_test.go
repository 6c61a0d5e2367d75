package splitter

import (
	"strings"
	"testing"

	"docsindexer/internal/domain/chunktype"
)

func raw(content, path string, level int, types chunktype.Set) RawChunk {
	return RawChunk{Content: content, SectionPath: path, SectionLevel: level, Types: types}
}

func TestOptimize_MergesSmallChunksUpToMin(t *testing.T) {
	chunks := []RawChunk{
		raw("a", "X", 1, chunktype.Content),
		raw("b", "X", 1, chunktype.Content),
		raw("c", "X", 1, chunktype.Content),
	}
	limits := Limits{PreferredChunkSize: 1000, MaxChunkSize: 2000, MinChunkSize: 2}
	out := Optimize(chunks, limits)
	if len(out) != 1 {
		t.Fatalf("got %d chunks, want 1 merged chunk: %+v", len(out), out)
	}
}

func TestOptimize_HardCeilingRejectsOversizedMerge(t *testing.T) {
	chunks := []RawChunk{
		raw(strings.Repeat("a", 50), "X", 1, chunktype.Content),
		raw(strings.Repeat("b", 50), "X", 1, chunktype.Content),
	}
	limits := Limits{PreferredChunkSize: 1000, MaxChunkSize: 60, MinChunkSize: 0}
	out := Optimize(chunks, limits)
	if len(out) != 2 {
		t.Fatalf("got %d chunks, want 2 (ceiling should reject the merge): %+v", len(out), out)
	}
}

func TestOptimize_StructureWinsOverSizeAtMajorBoundary(t *testing.T) {
	chunks := []RawChunk{
		raw(strings.Repeat("a", 10), "A", 1, chunktype.Structural),
		raw(strings.Repeat("b", 10), "B", 1, chunktype.Structural),
	}
	// MinChunkSize is already met by the first chunk, so the major
	// section boundary must force a split even though merging would stay
	// comfortably under both Preferred and Max.
	limits := Limits{PreferredChunkSize: 1000, MaxChunkSize: 1000, MinChunkSize: 5}
	out := Optimize(chunks, limits)
	if len(out) != 2 {
		t.Fatalf("got %d chunks, want 2 (major boundary should split): %+v", len(out), out)
	}
}

func TestOptimize_MergesSubsectionsUnderSameMajorSection(t *testing.T) {
	chunks := []RawChunk{
		raw(strings.Repeat("a", 10), "Top", 1, chunktype.Structural),
		raw(strings.Repeat("b", 10), "Top > Sub", 2, chunktype.Structural),
	}
	limits := Limits{PreferredChunkSize: 1000, MaxChunkSize: 1000, MinChunkSize: 100}
	out := Optimize(chunks, limits)
	if len(out) != 1 {
		t.Fatalf("got %d chunks, want 1 (subsection of same major section should merge): %+v", len(out), out)
	}
	if out[0].SectionLevel != 1 {
		t.Errorf("merged SectionLevel = %d, want 1 (min of levels)", out[0].SectionLevel)
	}
}

func TestOptimize_TypesUnionOnMerge(t *testing.T) {
	chunks := []RawChunk{
		raw("a", "X", 1, chunktype.Content),
		raw("b", "X", 1, chunktype.Code),
	}
	limits := Limits{PreferredChunkSize: 1000, MaxChunkSize: 1000, MinChunkSize: 100}
	out := Optimize(chunks, limits)
	if len(out) != 1 {
		t.Fatalf("got %d chunks, want 1", len(out))
	}
	if !out[0].Types.Has(chunktype.Content) || !out[0].Types.Has(chunktype.Code) {
		t.Errorf("merged Types = %v, want union of Content and Code", out[0].Types)
	}
}

func TestOptimize_InsertsNewlineSeparatorWhenMissing(t *testing.T) {
	chunks := []RawChunk{
		raw("line one", "X", 1, chunktype.Content),
		raw("line two", "X", 1, chunktype.Content),
	}
	limits := Limits{PreferredChunkSize: 1000, MaxChunkSize: 1000, MinChunkSize: 100}
	out := Optimize(chunks, limits)
	if len(out) != 1 || out[0].Content != "line one\nline two" {
		t.Errorf("Content = %q, want joined with inserted newline", out[0].Content)
	}
}

func TestOptimize_EmptyInput(t *testing.T) {
	out := Optimize(nil, Limits{})
	if out != nil {
		t.Errorf("got %v, want nil for empty input", out)
	}
}
