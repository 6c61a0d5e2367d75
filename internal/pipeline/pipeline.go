// Package pipeline turns a fetched response into normalized text plus
// discovered links, as an ordered chain of middlewares sharing one mutable
// context — mirroring the teacher's readability extraction step but
// generalized from a single hard-coded extractor into a per-content-type
// chain that can short-circuit at any stage.
package pipeline

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// ContentType selects which pipeline processes a fetched response.
type ContentType string

const (
	ContentHTML       ContentType = "html"
	ContentMarkdown   ContentType = "markdown"
	ContentJSON       ContentType = "json"
	ContentSourceCode ContentType = "sourcecode"
	ContentText       ContentType = "text"
)

// RenderMode controls whether the HTML pipeline re-fetches a page through a
// headless browser before parsing.
type RenderMode string

const (
	RenderModeOff     RenderMode = "off"
	RenderModeAuto    RenderMode = "auto"
	RenderModeBrowser RenderMode = "browser"
)

// Renderer re-fetches a URL through a JS-capable browser, returning the
// rendered HTML. Implemented by fetch.BrowserFetcher; kept as an interface
// here so pipeline never needs to import the concrete chromedp wiring.
type Renderer interface {
	Render(ctx context.Context, url string) ([]byte, error)
}

// Options configures pipeline behavior that doesn't belong on the content
// itself: render mode, sanitize selector list, and the safety-net ratio.
type Options struct {
	RenderMode RenderMode
	Renderer   Renderer

	// SanitizeSelectors lists CSS selectors removed during the HTML
	// pipeline's sanitize stage (nav, footer, ads, script, style by
	// default — see DefaultSanitizeSelectors).
	SanitizeSelectors []string

	// SanitizeMaxDropRatio bounds how much textual content the sanitize
	// stage may remove; crossing it reverts the removal entirely.
	SanitizeMaxDropRatio float64

	MaxChunkSize int
}

// DefaultSanitizeSelectors removes the boilerplate the teacher's readability
// extraction relied on a third-party algorithm to drop; the pipeline does
// it explicitly so the safety net (Options.SanitizeMaxDropRatio) has
// something concrete to measure against.
func DefaultSanitizeSelectors() []string {
	return []string{"nav", "footer", "header", "aside", "script", "style",
		".advertisement", ".ads", ".cookie-banner", "#cookie-consent"}
}

// Context is the mutable state threaded through every middleware in a
// pipeline run. Middlewares read and write it in place.
type Context struct {
	SourceURL   string
	ContentType ContentType

	// Bytes holds the raw fetched payload; Text holds the pipeline's
	// working textual representation once a stage has populated it
	// (Markdown source for the HTML/Markdown pipelines, raw text
	// otherwise).
	Bytes []byte
	Text  string

	// Doc is the parsed DOM, set by the HTML pipeline's parse stage and
	// read by every stage after it.
	Doc *goquery.Document

	Title           string
	Metadata        map[string]string
	DiscoveredLinks []string

	Errors []error

	Options Options
}

// AddLink appends a discovered link if it is not already present.
func (c *Context) AddLink(url string) {
	for _, l := range c.DiscoveredLinks {
		if l == url {
			return
		}
	}
	c.DiscoveredLinks = append(c.DiscoveredLinks, url)
}

// Middleware processes one pipeline stage. Returning an error short-
// circuits the remaining stages.
type Middleware func(ctx context.Context, pc *Context) error

// Pipeline is an ordered chain of middlewares for one content type.
type Pipeline struct {
	Name   string
	Stages []Middleware
}

// Run executes every stage in order, stopping at the first error. The
// returning error is also appended to pc.Errors so callers that only
// inspect the context (rather than the return value) still see it.
func (p *Pipeline) Run(ctx context.Context, pc *Context) error {
	for _, stage := range p.Stages {
		if err := stage(ctx, pc); err != nil {
			pc.Errors = append(pc.Errors, err)
			return err
		}
	}
	return nil
}

// Select returns the pipeline for a content type, falling back to the text
// pipeline (no transformation) for anything unrecognized.
func Select(ct ContentType) *Pipeline {
	switch ct {
	case ContentHTML:
		return HTMLPipeline()
	case ContentMarkdown:
		return MarkdownPipeline()
	case ContentJSON:
		return JSONPipeline()
	case ContentSourceCode:
		return SourceCodePipeline()
	default:
		return TextPipeline()
	}
}

// DetectContentType maps an HTTP Content-Type header and URL extension to a
// pipeline selection; text/markdown and text/plain skip the HTML stages
// per spec.
func DetectContentType(httpContentType, url string) ContentType {
	switch {
	case containsAny(httpContentType, "text/html", "application/xhtml"):
		return ContentHTML
	case containsAny(httpContentType, "text/markdown"):
		return ContentMarkdown
	case containsAny(httpContentType, "application/json"):
		return ContentJSON
	case containsAny(httpContentType, "text/plain"):
		return ContentText
	}
	if hasAnySuffix(url, ".md", ".markdown") {
		return ContentMarkdown
	}
	if hasAnySuffix(url, ".json") {
		return ContentJSON
	}
	if ext := sourceCodeExt(url); ext != "" {
		return ContentSourceCode
	}
	if hasAnySuffix(url, ".html", ".htm") {
		return ContentHTML
	}
	return ContentText
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if len(s) >= len(sub) && indexOf(s, sub) >= 0 {
			return true
		}
	}
	return false
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if len(s) >= len(suf) && s[len(s)-len(suf):] == suf {
			return true
		}
	}
	return false
}
