// Package fetch retrieves raw page bytes for the scraper's BFS executor.
// It deliberately returns unprocessed bytes plus transport metadata — HTML
// extraction, Markdown conversion, and sanitization are the content
// pipeline's job (internal/pipeline), not the fetcher's.
package fetch

import "context"

// Conditional carries the caching headers a refresh sends to avoid
// re-downloading unchanged pages.
type Conditional struct {
	IfNoneMatch     string
	IfModifiedSince string
}

// Result is a successful (or not-modified) fetch response.
type Result struct {
	URL         string
	StatusCode  int
	ContentType string
	ETag        string
	LastModified string
	Body        []byte

	// NotModified is true when the server answered 304 to a conditional
	// request; Body is empty in that case.
	NotModified bool
}

// Fetcher retrieves one URL. Implementations: HTTPFetcher (plain HTTP/S),
// BrowserFetcher (JS-rendered pages via chromedp), FileFetcher (local
// filesystem / file:// URLs), GitFetcher (GitHub repository contents).
// Registry metadata (npm/PyPI) is fetched through HTTPFetcher.
type Fetcher interface {
	Fetch(ctx context.Context, url string, cond Conditional) (*Result, error)
}
