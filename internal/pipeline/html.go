package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// HTMLPipeline builds the seven-stage chain for HTML responses: optional
// dynamic render, DOM parse, metadata extract, link discovery, sanitize
// (with a safety net), normalize, and HTML-to-Markdown conversion.
func HTMLPipeline() *Pipeline {
	return &Pipeline{
		Name: "html",
		Stages: []Middleware{
			stageMaybeRender,
			stageParseDOM,
			stageExtractMetadata,
			stageDiscoverLinks,
			stageSanitize,
			stageNormalize,
			stageHTMLToMarkdown,
		},
	}
}

// stageMaybeRender re-fetches the page through a headless browser when the
// caller asked for it (render mode auto/browser) and a Renderer was wired
// in. It's a no-op otherwise — most HTML is static and pays no browser
// round-trip.
func stageMaybeRender(ctx context.Context, pc *Context) error {
	if pc.Options.Renderer == nil {
		return nil
	}
	if pc.Options.RenderMode != RenderModeAuto && pc.Options.RenderMode != RenderModeBrowser {
		return nil
	}
	rendered, err := pc.Options.Renderer.Render(ctx, pc.SourceURL)
	if err != nil {
		if pc.Options.RenderMode == RenderModeBrowser {
			return fmt.Errorf("browser render failed: %w", err)
		}
		// auto mode tolerates a render failure and falls back to the
		// bytes already fetched statically.
		return nil
	}
	pc.Bytes = rendered
	return nil
}

func stageParseDOM(_ context.Context, pc *Context) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(pc.Bytes)))
	if err != nil {
		return fmt.Errorf("parse DOM: %w", err)
	}
	pc.Doc = doc
	return nil
}

func stageExtractMetadata(_ context.Context, pc *Context) error {
	if pc.Metadata == nil {
		pc.Metadata = make(map[string]string)
	}
	title := strings.TrimSpace(pc.Doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(pc.Doc.Find("h1").First().Text())
	}
	pc.Title = title
	pc.Metadata["title"] = title
	return nil
}

// stageDiscoverLinks walks every <a href> in the full DOM (before sanitize
// removes anything) and resolves each against the source URL so downstream
// consumers only ever see absolute URLs.
func stageDiscoverLinks(_ context.Context, pc *Context) error {
	base, err := url.Parse(pc.SourceURL)
	if err != nil {
		return fmt.Errorf("parse source URL: %w", err)
	}
	pc.Doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		resolved := resolveLink(base, href)
		if resolved != "" {
			pc.AddLink(resolved)
		}
	})
	return nil
}

// resolveLink absolutizes href against base, returning "" for link types
// normalize later strips anyway (anchors, javascript:, mailto:).
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

// stageSanitize removes boilerplate elements by selector, but reverts the
// whole removal if it would drop more than SanitizeMaxDropRatio of the
// document's textual content — guarding against an overly aggressive
// selector set gutting a page that happens to use <nav> or <aside> for
// real article content.
func stageSanitize(_ context.Context, pc *Context) error {
	selectors := pc.Options.SanitizeSelectors
	if len(selectors) == 0 {
		selectors = DefaultSanitizeSelectors()
	}
	ratio := pc.Options.SanitizeMaxDropRatio
	if ratio <= 0 {
		ratio = 0.5
	}

	before := len(strings.TrimSpace(pc.Doc.Text()))
	if before == 0 {
		return nil
	}

	clone := cloneDoc(pc.Doc)
	for _, sel := range selectors {
		clone.Find(sel).Remove()
	}
	after := len(strings.TrimSpace(clone.Text()))

	dropped := float64(before-after) / float64(before)
	if dropped > ratio {
		// Safety net: revert, sanitize stage becomes a no-op for this page.
		return nil
	}
	pc.Doc = clone
	return nil
}

func cloneDoc(doc *goquery.Document) *goquery.Document {
	html, err := doc.Html()
	if err != nil {
		return doc
	}
	clone, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return doc
	}
	return clone
}

// stageNormalize rewrites every remaining <a href> to its absolute form
// (discovery already resolved them; this persists the resolution into the
// DOM) and drops anchor/javascript/mailto links while preserving their
// anchor text as plain text.
func stageNormalize(_ context.Context, pc *Context) error {
	base, err := url.Parse(pc.SourceURL)
	if err != nil {
		return fmt.Errorf("parse source URL: %w", err)
	}
	pc.Doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved := resolveLink(base, href)
		if resolved == "" {
			sel.ReplaceWithHtml(sel.Text())
			return
		}
		sel.SetAttr("href", resolved)
	})
	return nil
}

func stageHTMLToMarkdown(_ context.Context, pc *Context) error {
	html, err := pc.Doc.Html()
	if err != nil {
		return fmt.Errorf("serialize DOM: %w", err)
	}
	converter := md.NewConverter("", true, nil)
	out, err := converter.ConvertString(html)
	if err != nil {
		return fmt.Errorf("html to markdown: %w", err)
	}
	pc.Text = out
	return nil
}
