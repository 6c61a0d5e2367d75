package store

import (
	"context"
	"testing"
)

func TestQueryLibraryVersionsIncludesZeroPageVersions(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()

	if _, err := s.ResolveVersionID(ctx, "widgets", "1.0.0"); err != nil {
		t.Fatalf("ResolveVersionID: %v", err)
	}

	versions, err := s.QueryLibraryVersions(ctx, "widgets")
	if err != nil {
		t.Fatalf("QueryLibraryVersions: %v", err)
	}
	if len(versions) != 1 {
		t.Fatalf("expected 1 version, got %d", len(versions))
	}
	if versions[0].DocumentCount != 0 {
		t.Errorf("expected zero documents, got %d", versions[0].DocumentCount)
	}
}

func TestQueryLibraryVersionsSortsEmptyVersionFirst(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()

	for _, v := range []string{"1.0.0", "2.0.0", ""} {
		if _, err := s.ResolveVersionID(ctx, "widgets", v); err != nil {
			t.Fatalf("ResolveVersionID(%q): %v", v, err)
		}
	}

	versions, err := s.QueryLibraryVersions(ctx, "widgets")
	if err != nil {
		t.Fatalf("QueryLibraryVersions: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("expected 3 versions, got %d", len(versions))
	}
	if versions[0].Version != "" {
		t.Errorf("expected empty version first, got %+v", versions)
	}
	if versions[1].Version != "2.0.0" || versions[2].Version != "1.0.0" {
		t.Errorf("expected semver descending after latest, got %v, %v", versions[1].Version, versions[2].Version)
	}
}

func TestQueryLibraryVersionsAggregatesDocumentCounts(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()

	if _, err := s.AddDocuments(ctx, "widgets", "1.0.0", 0, samplePage("https://example.dev/a")); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	versions, err := s.QueryLibraryVersions(ctx, "widgets")
	if err != nil {
		t.Fatalf("QueryLibraryVersions: %v", err)
	}
	if len(versions) != 1 {
		t.Fatalf("expected 1 version, got %d", len(versions))
	}
	if versions[0].DocumentCount != 2 {
		t.Errorf("DocumentCount = %d, want 2", versions[0].DocumentCount)
	}
	if versions[0].DistinctURLCount != 1 {
		t.Errorf("DistinctURLCount = %d, want 1", versions[0].DistinctURLCount)
	}
}
