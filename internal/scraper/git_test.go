package scraper

import (
	"context"
	"testing"

	"docsindexer/internal/fetch"
)

type fakeGitLister struct {
	files map[string][]string // "owner/repo" -> file URLs
}

func (f *fakeGitLister) Fetch(_ context.Context, url string, _ fetch.Conditional) (*fetch.Result, error) {
	return &fetch.Result{URL: url, StatusCode: 200, Body: []byte("content")}, nil
}

func (f *fakeGitLister) ListRepoFiles(_ context.Context, owner, repo string) ([]string, error) {
	return f.files[owner+"/"+repo], nil
}

func TestGitStrategy_SeedEnumeratesRepoFiles(t *testing.T) {
	lister := &fakeGitLister{files: map[string][]string{
		"acme/widgets": {"github://acme/widgets/README.md", "github://acme/widgets/docs/guide.md"},
	}}
	s := NewGitStrategy(lister)

	items, err := s.Seed(context.Background(), "github://acme/widgets", Options{})
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 files, got %d", len(items))
	}
	for _, it := range items {
		if it.Depth != 0 {
			t.Errorf("expected flat enumeration at depth 0, got %d for %q", it.Depth, it.URL)
		}
	}
}

func TestGitStrategy_CanHandle(t *testing.T) {
	s := NewGitStrategy(nil)
	if !s.CanHandle("github://acme/widgets") || !s.CanHandle("https://github.com/acme/widgets") {
		t.Error("expected github:// and https://github.com/ prefixes to be handled")
	}
	if s.CanHandle("https://example.com") {
		t.Error("expected a non-github URL not to be handled")
	}
}

func TestParseGitHubInput(t *testing.T) {
	tests := []struct {
		in        string
		owner, repo string
		wantErr   bool
	}{
		{"github://acme/widgets", "acme", "widgets", false},
		{"https://github.com/acme/widgets", "acme", "widgets", false},
		{"https://github.com/acme/widgets/", "acme", "widgets", false},
		{"github://acme", "", "", true},
	}
	for _, tt := range tests {
		owner, repo, err := parseGitHubInput(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseGitHubInput(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseGitHubInput(%q): unexpected error %v", tt.in, err)
			continue
		}
		if owner != tt.owner || repo != tt.repo {
			t.Errorf("parseGitHubInput(%q) = (%q, %q), want (%q, %q)", tt.in, owner, repo, tt.owner, tt.repo)
		}
	}
}

func TestGitStrategy_ExtractLinksIsNoop(t *testing.T) {
	s := NewGitStrategy(nil)
	items, err := s.ExtractLinks(context.Background(), QueueItem{}, nil)
	if err != nil || items != nil {
		t.Errorf("expected no-op ExtractLinks, got (%v, %v)", items, err)
	}
}
