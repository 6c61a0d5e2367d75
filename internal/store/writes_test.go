package store

import (
	"context"
	"testing"

	"docsindexer/internal/domain/chunktype"
	"docsindexer/internal/domain/entity"
	"docsindexer/internal/splitter"
)

func samplePage(url string) PageInput {
	return PageInput{
		URL:         url,
		Title:       "Authentication",
		ContentType: "text/html",
		Chunks: []splitter.RawChunk{
			{Content: "Overview of auth", Types: chunktype.Content, SectionLevel: 1, SectionPath: "Auth"},
			{Content: "OAuth details", Types: chunktype.Content, SectionLevel: 2, SectionPath: "Auth/OAuth"},
		},
	}
}

func TestResolveVersionIDIsIdempotent(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()

	id1, err := s.ResolveVersionID(ctx, "react", "18.0.0")
	if err != nil {
		t.Fatalf("ResolveVersionID: %v", err)
	}
	id2, err := s.ResolveVersionID(ctx, "react", "18.0.0")
	if err != nil {
		t.Fatalf("ResolveVersionID (second call): %v", err)
	}
	if id1 != id2 {
		t.Errorf("expected stable version id, got %d then %d", id1, id2)
	}
}

func TestAddDocumentsPersistsChunksAndIsReplaceable(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()

	page, err := s.AddDocuments(ctx, "react", "18.0.0", 0, samplePage("https://react.dev/auth"))
	if err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	if page.ID == 0 {
		t.Fatal("expected non-zero page id")
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM documents WHERE page_id = ?`, page.ID).Scan(&count); err != nil {
		t.Fatalf("count documents: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 chunks, got %d", count)
	}

	var ftsCount int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM documents_fts`).Scan(&ftsCount); err != nil {
		t.Fatalf("count fts rows: %v", err)
	}
	if ftsCount != 2 {
		t.Fatalf("expected 2 fts rows, got %d", ftsCount)
	}

	// Re-adding the same page with fewer chunks must replace, not append.
	replacement := samplePage("https://react.dev/auth")
	replacement.Chunks = replacement.Chunks[:1]
	if _, err := s.AddDocuments(ctx, "react", "18.0.0", 0, replacement); err != nil {
		t.Fatalf("AddDocuments (replace): %v", err)
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM documents WHERE page_id = ?`, page.ID).Scan(&count); err != nil {
		t.Fatalf("count documents after replace: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 chunk after replace, got %d", count)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM documents_fts`).Scan(&ftsCount); err != nil {
		t.Fatalf("count fts rows after replace: %v", err)
	}
	if ftsCount != 1 {
		t.Fatalf("expected 1 fts row after replace, got %d", ftsCount)
	}
}

func TestDeletePageRemovesChunksAndFTSMirror(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()

	page, err := s.AddDocuments(ctx, "vue", "", 0, samplePage("https://vuejs.org/auth"))
	if err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	if err := s.DeletePage(ctx, page.ID); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}

	var pageCount int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM pages WHERE id = ?`, page.ID).Scan(&pageCount); err != nil {
		t.Fatalf("count pages: %v", err)
	}
	if pageCount != 0 {
		t.Error("expected page to be gone")
	}

	var ftsCount int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM documents_fts`).Scan(&ftsCount); err != nil {
		t.Fatalf("count fts rows: %v", err)
	}
	if ftsCount != 0 {
		t.Error("expected fts mirror to be empty")
	}
}

func TestDeletePageNotFound(t *testing.T) {
	s := openTestStore(t, nil)
	if err := s.DeletePage(context.Background(), 999); err == nil {
		t.Fatal("expected error for nonexistent page")
	}
}

func TestRemoveVersionCascadesAndReportsCounts(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()

	if _, err := s.AddDocuments(ctx, "svelte", "4.0.0", 0, samplePage("https://svelte.dev/auth")); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	result, err := s.RemoveVersion(ctx, "svelte", "4.0.0", true)
	if err != nil {
		t.Fatalf("RemoveVersion: %v", err)
	}
	if result.DocumentsDeleted != 2 {
		t.Errorf("DocumentsDeleted = %d, want 2", result.DocumentsDeleted)
	}
	if !result.VersionDeleted {
		t.Error("expected VersionDeleted = true")
	}
	if !result.LibraryDeleted {
		t.Error("expected LibraryDeleted = true (last version removed)")
	}
}

func TestRemoveVersionKeepsLibraryWhenOtherVersionsRemain(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()

	if _, err := s.AddDocuments(ctx, "svelte", "4.0.0", 0, samplePage("https://svelte.dev/a")); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	if _, err := s.ResolveVersionID(ctx, "svelte", "5.0.0"); err != nil {
		t.Fatalf("ResolveVersionID: %v", err)
	}

	result, err := s.RemoveVersion(ctx, "svelte", "4.0.0", true)
	if err != nil {
		t.Fatalf("RemoveVersion: %v", err)
	}
	if result.LibraryDeleted {
		t.Error("expected library to survive since another version remains")
	}
}

func TestRemoveVersionNotFound(t *testing.T) {
	s := openTestStore(t, nil)
	if _, err := s.RemoveVersion(context.Background(), "missing", "1.0.0", false); err == nil {
		t.Fatal("expected error for unknown version")
	}
}

func TestUpdateVersionStatusAndProgress(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()

	if _, err := s.ResolveVersionID(ctx, "next", ""); err != nil {
		t.Fatalf("ResolveVersionID: %v", err)
	}

	if err := s.UpdateVersionStatus(ctx, "next", "", entity.VersionStatusRunning, ""); err != nil {
		t.Fatalf("UpdateVersionStatus: %v", err)
	}
	if err := s.UpdateVersionProgress(ctx, "next", "", 3, 10); err != nil {
		t.Fatalf("UpdateVersionProgress: %v", err)
	}

	var status string
	var pagesDone, pagesMax int
	err := s.db.QueryRow(`
		SELECT status, pages_done, pages_max FROM versions
		WHERE library_id = (SELECT id FROM libraries WHERE name = 'next') AND version = ''
	`).Scan(&status, &pagesDone, &pagesMax)
	if err != nil {
		t.Fatalf("query version: %v", err)
	}
	if status != string(entity.VersionStatusRunning) || pagesDone != 3 || pagesMax != 10 {
		t.Errorf("got status=%s pagesDone=%d pagesMax=%d", status, pagesDone, pagesMax)
	}
}

func TestUpdateVersionStatusNotFound(t *testing.T) {
	s := openTestStore(t, nil)
	err := s.UpdateVersionStatus(context.Background(), "missing", "1.0.0", entity.VersionStatusFailed, "boom")
	if err == nil {
		t.Fatal("expected error for unknown version")
	}
}
