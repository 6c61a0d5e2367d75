package splitter

import "testing"

func TestSplitText_SplitsOnBlankLines(t *testing.T) {
	src := "First paragraph.\n\nSecond paragraph.\n\n\nThird paragraph.\n"
	chunks := SplitText(src, Limits{})
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3: %+v", len(chunks), chunks)
	}
	if chunks[0].SectionPath != "p1" || chunks[2].SectionPath != "p3" {
		t.Errorf("unexpected paths: %v", chunks)
	}
}

func TestSplitText_SkipsBlankParagraphs(t *testing.T) {
	src := "\n\n\nonly real paragraph\n\n\n"
	chunks := SplitText(src, Limits{})
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
}
