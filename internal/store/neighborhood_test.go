package store

import (
	"context"
	"testing"

	"docsindexer/internal/domain/chunktype"
	"docsindexer/internal/domain/entity"
	"docsindexer/internal/splitter"
)

func seedNeighborhoodCorpus(t *testing.T, s *Store) int64 {
	t.Helper()
	ctx := context.Background()

	page := PageInput{
		URL:   "https://example.dev/guide",
		Title: "Guide",
		Chunks: []splitter.RawChunk{
			{Content: "Guides intro", Types: chunktype.Content, SectionLevel: 1, SectionPath: "Guides"},
			{Content: "Authentication intro", Types: chunktype.Content, SectionLevel: 2, SectionPath: "Guides/Authentication"},
			{Content: "OAuth flow step one", Types: chunktype.Content, SectionLevel: 3, SectionPath: "Guides/Authentication/OAuth"},
			{Content: "OAuth flow step two", Types: chunktype.Content, SectionLevel: 3, SectionPath: "Guides/Authentication/OAuth"},
			{Content: "OAuth flow step three", Types: chunktype.Content, SectionLevel: 3, SectionPath: "Guides/Authentication/OAuth"},
			{Content: "API keys intro", Types: chunktype.Content, SectionLevel: 2, SectionPath: "Guides/APIKeys"},
		},
	}
	p, err := s.AddDocuments(ctx, "widgets", "1.0.0", 0, page)
	if err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	return p.ID
}

func chunkAt(t *testing.T, s *Store, pageID int64, sortOrder int) entity.Chunk {
	t.Helper()
	row := s.db.QueryRow(`
		SELECT id, page_id, sort_order, content, types, section_level, section_path
		FROM documents WHERE page_id = ? AND sort_order = ?
	`, pageID, sortOrder)
	c, err := scanChunkRow(row)
	if err != nil {
		t.Fatalf("chunkAt(%d): %v", sortOrder, err)
	}
	return c
}

func TestAssembleNeighborhoodParentChain(t *testing.T) {
	s := openTestStore(t, nil)
	pageID := seedNeighborhoodCorpus(t, s)
	hit := chunkAt(t, s, pageID, 2) // first "Guides/Authentication/OAuth" chunk

	n, err := s.AssembleNeighborhood(context.Background(), hit)
	if err != nil {
		t.Fatalf("AssembleNeighborhood: %v", err)
	}

	if len(n.Parents) != 2 {
		t.Fatalf("expected 2 parents, got %d: %+v", len(n.Parents), n.Parents)
	}
	if n.Parents[0].SectionPath != "Guides" {
		t.Errorf("outermost parent = %q, want Guides", n.Parents[0].SectionPath)
	}
	if n.Parents[1].SectionPath != "Guides/Authentication" {
		t.Errorf("innermost parent = %q, want Guides/Authentication", n.Parents[1].SectionPath)
	}
}

func TestAssembleNeighborhoodSiblings(t *testing.T) {
	s := openTestStore(t, nil)
	pageID := seedNeighborhoodCorpus(t, s)
	hit := chunkAt(t, s, pageID, 3) // middle "OAuth flow step two"

	n, err := s.AssembleNeighborhood(context.Background(), hit)
	if err != nil {
		t.Fatalf("AssembleNeighborhood: %v", err)
	}

	if len(n.Preceding) != 1 || n.Preceding[0].Content != "OAuth flow step one" {
		t.Errorf("preceding = %+v, want [step one]", n.Preceding)
	}
	if len(n.Following) != 1 || n.Following[0].Content != "OAuth flow step three" {
		t.Errorf("following = %+v, want [step three]", n.Following)
	}
}

func TestAssembleNeighborhoodChildren(t *testing.T) {
	s := openTestStore(t, nil)
	pageID := seedNeighborhoodCorpus(t, s)
	hit := chunkAt(t, s, pageID, 1) // "Guides/Authentication"

	n, err := s.AssembleNeighborhood(context.Background(), hit)
	if err != nil {
		t.Fatalf("AssembleNeighborhood: %v", err)
	}

	if len(n.Children) == 0 {
		t.Fatal("expected at least one child chunk")
	}
	for _, c := range n.Children {
		if c.SectionPath != "Guides/Authentication/OAuth" {
			t.Errorf("unexpected child section path %q", c.SectionPath)
		}
	}
}

func TestAssembleNeighborhoodRespectsChildLimit(t *testing.T) {
	s := openTestStore(t, nil)
	s.assembly.ChildLimit = 2
	pageID := seedNeighborhoodCorpus(t, s)
	hit := chunkAt(t, s, pageID, 1)

	n, err := s.AssembleNeighborhood(context.Background(), hit)
	if err != nil {
		t.Fatalf("AssembleNeighborhood: %v", err)
	}
	if len(n.Children) > 2 {
		t.Errorf("expected at most 2 children, got %d", len(n.Children))
	}
}
