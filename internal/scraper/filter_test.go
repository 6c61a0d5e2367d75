package scraper

import "testing"

func TestURLFilter_ScopeSubpages(t *testing.T) {
	f, err := NewURLFilter(ScopeSubpages, "https://example.com/docs/guide", nil, nil)
	if err != nil {
		t.Fatalf("NewURLFilter failed: %v", err)
	}
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/docs/guide/page", true},
		{"https://example.com/docs/other", true},
		{"https://example.com/blog/post", false},
		{"https://other.com/docs/guide/page", false},
	}
	for _, tt := range tests {
		if got := f.Allow(tt.url); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestURLFilter_ScopeHostname(t *testing.T) {
	f, err := NewURLFilter(ScopeHostname, "https://example.com/docs", nil, nil)
	if err != nil {
		t.Fatalf("NewURLFilter failed: %v", err)
	}
	if !f.Allow("https://example.com/totally/different/path") {
		t.Error("expected same-hostname URL to be allowed under hostname scope")
	}
	if f.Allow("https://sub.example.com/docs") {
		t.Error("expected different-hostname URL to be rejected under hostname scope")
	}
}

func TestURLFilter_ScopeAny(t *testing.T) {
	f, err := NewURLFilter(ScopeAny, "https://example.com/docs", nil, nil)
	if err != nil {
		t.Fatalf("NewURLFilter failed: %v", err)
	}
	if !f.Allow("https://anywhere.net/x") {
		t.Error("expected scope any to allow every host")
	}
}

func TestURLFilter_LlmsTxtAlwaysExcluded(t *testing.T) {
	f, err := NewURLFilter(ScopeAny, "https://example.com/docs", []string{"**"}, nil)
	if err != nil {
		t.Fatalf("NewURLFilter failed: %v", err)
	}
	if f.Allow("https://example.com/llms.txt") {
		t.Error("expected llms.txt to be excluded even with a catch-all include pattern")
	}
}

func TestURLFilter_UserIncludeReplacesDefault(t *testing.T) {
	f, err := NewURLFilter(ScopeAny, "https://example.com/docs", []string{"docs/**/*.html"}, nil)
	if err != nil {
		t.Fatalf("NewURLFilter failed: %v", err)
	}
	if !f.Allow("https://example.com/docs/a/b.html") {
		t.Error("expected matching include pattern to allow URL")
	}
	if f.Allow("https://example.com/other/c.html") {
		t.Error("expected non-matching path to be rejected when includes are set")
	}
}

func TestURLFilter_RegexPattern(t *testing.T) {
	f, err := NewURLFilter(ScopeAny, "https://example.com/docs", nil, []string{`/\.pdf$/`})
	if err != nil {
		t.Fatalf("NewURLFilter failed: %v", err)
	}
	if f.Allow("https://example.com/file.pdf") {
		t.Error("expected regex exclude pattern to reject matching URL")
	}
	if !f.Allow("https://example.com/file.html") {
		t.Error("expected non-matching URL to pass")
	}
}
