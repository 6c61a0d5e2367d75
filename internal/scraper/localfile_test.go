package scraper

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalFileStrategy_SeedWalksTreeAssigningDepth(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "index.md"), []byte("# root"), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "guide")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "page.md"), []byte("# page"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewLocalFileStrategy(nil)
	items, err := s.Seed(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 files, got %d: %v", len(items), items)
	}

	depths := map[string]int{}
	for _, it := range items {
		depths[filepath.Base(it.URL)] = it.Depth
	}
	if depths["index.md"] != 0 {
		t.Errorf("expected root file at depth 0, got %d", depths["index.md"])
	}
	if depths["page.md"] != 1 {
		t.Errorf("expected nested file at depth 1, got %d", depths["page.md"])
	}
}

func TestLocalFileStrategy_CanHandleDirectory(t *testing.T) {
	root := t.TempDir()
	s := NewLocalFileStrategy(nil)
	if !s.CanHandle(root) {
		t.Error("expected CanHandle to accept an existing directory path")
	}
	if s.CanHandle(filepath.Join(root, "does-not-exist")) {
		t.Error("expected CanHandle to reject a nonexistent path")
	}
}

func TestLocalFileStrategy_ExtractLinksIsNoop(t *testing.T) {
	s := NewLocalFileStrategy(nil)
	items, err := s.ExtractLinks(context.Background(), QueueItem{}, nil)
	if err != nil || items != nil {
		t.Errorf("expected no-op ExtractLinks, got (%v, %v)", items, err)
	}
}
