package scraper

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"docsindexer/internal/fetch"
	"docsindexer/internal/pipeline"
)

// markdownLinkRe matches inline Markdown links: [text](target), used to
// parse the llms.txt Markdown link list.
var markdownLinkRe = regexp.MustCompile(`\[[^\]]*\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)

// WebStrategy discovers URLs by following links found in HTML/Markdown
// content. Before the main loop (fresh jobs only) it probes for an
// llms.txt file and seeds the queue with whatever it lists.
type WebStrategy struct {
	fetcher fetch.Fetcher
}

// NewWebStrategy builds a Web strategy over the given fetcher (typically
// an *fetch.HTTPFetcher).
func NewWebStrategy(fetcher fetch.Fetcher) *WebStrategy {
	return &WebStrategy{fetcher: fetcher}
}

func (s *WebStrategy) Name() string { return "web" }

func (s *WebStrategy) CanHandle(input string) bool {
	u, err := url.Parse(input)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// Seed probes for llms.txt (parent directory first, then site root) and, on
// success, seeds depth 0 with the listed URLs marked FromLlmsTxt; it always
// also seeds the root input itself so a job still indexes the page the
// caller pointed it at.
func (s *WebStrategy) Seed(ctx context.Context, input string, opts Options) ([]QueueItem, error) {
	items := []QueueItem{{URL: input, Depth: 0}}

	if opts.Refresh {
		return items, nil
	}

	for _, candidate := range llmsTxtCandidates(input) {
		result, err := s.fetcher.Fetch(ctx, candidate, fetch.Conditional{})
		if err != nil || result.StatusCode != http.StatusOK {
			continue
		}
		for _, u := range parseLlmsTxt(string(result.Body)) {
			items = append(items, QueueItem{URL: u, Depth: 0, FromLlmsTxt: true})
		}
		break
	}

	return items, nil
}

// llmsTxtCandidates returns the parent-directory URL first (stripping the
// last path segment without reusing scope computation, per spec.md §4.3),
// then the site root.
func llmsTxtCandidates(input string) []string {
	u, err := url.Parse(input)
	if err != nil {
		return nil
	}
	var out []string

	parentPath := rootDir(u.Path)
	parent := *u
	parent.Path = parentPath + "llms.txt"
	out = append(out, parent.String())

	root := *u
	root.Path = "/llms.txt"
	out = append(out, root.String())

	return out
}

// parseLlmsTxt extracts Markdown link targets from an llms.txt body — the
// format is a Markdown document whose links enumerate the documentation
// set.
func parseLlmsTxt(body string) []string {
	var urls []string
	for _, m := range markdownLinkRe.FindAllStringSubmatch(body, -1) {
		urls = append(urls, strings.TrimSpace(m[1]))
	}
	return urls
}

// Fetch retrieves item's content, first attempting a ".md" sibling when the
// item came from an llms.txt seed (spec.md §4.3): ".md" appended to
// file-like paths, "index.html.md" to directory-like paths, used only if
// the response is 200 and text-like.
func (s *WebStrategy) Fetch(ctx context.Context, item QueueItem) (*fetch.Result, error) {
	if item.FromLlmsTxt {
		if sibling := mdSiblingURL(item.URL); sibling != "" {
			result, err := s.fetcher.Fetch(ctx, sibling, fetch.Conditional{})
			if err == nil && result.StatusCode == http.StatusOK && isTextLike(result.ContentType) {
				return result, nil
			}
		}
	}
	return s.fetcher.Fetch(ctx, item.URL, item.Conditional)
}

func mdSiblingURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if u.Path == "" || strings.HasSuffix(u.Path, "/") {
		u.Path += "index.html.md"
	} else {
		u.Path += ".md"
	}
	return u.String()
}

func isTextLike(contentType string) bool {
	return strings.HasPrefix(contentType, "text/") ||
		strings.Contains(contentType, "markdown") ||
		strings.Contains(contentType, "json")
}

// ExtractLinks returns every link the pipeline discovered, already
// filtered to scope/include/exclude by the executor after this call
// returns (the executor applies the shared URLFilter, not the strategy).
func (s *WebStrategy) ExtractLinks(_ context.Context, item QueueItem, pc *pipeline.Context) ([]QueueItem, error) {
	out := make([]QueueItem, 0, len(pc.DiscoveredLinks))
	for _, link := range pc.DiscoveredLinks {
		out = append(out, QueueItem{URL: link, Depth: item.Depth + 1})
	}
	return out, nil
}
