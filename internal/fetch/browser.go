package fetch

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	lru "github.com/hashicorp/golang-lru/v2"

	"docsindexer/internal/apperrors"
	"docsindexer/internal/config"
)

// cachedResponse is one subresource response held in BrowserFetcher's LRU.
type cachedResponse struct {
	body        []byte
	contentType string
}

// BrowserFetcher renders JS-dependent pages with a single shared headless
// Chrome instance (spec.md §4.1's "Browser fetcher"). One browser context is
// allocated per fetch and always closed, mirroring the teacher's resource-
// guard discipline for pooled connections (acquire, defer release).
type BrowserFetcher struct {
	cfg        config.ScraperSection
	sideClient *http.Client

	allocCtx    context.Context
	allocCancel context.CancelFunc

	cache *lru.Cache[string, cachedResponse]
}

// NewBrowserFetcher allocates the process-wide browser instance. Call Close
// when the process shuts down; a leaked allocator leaves a zombie Chrome
// process behind.
func NewBrowserFetcher(cfg config.ScraperSection) (*BrowserFetcher, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", true))
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	cache, err := lru.New[string, cachedResponse](maxInt(cfg.MaxCacheItems, 1))
	if err != nil {
		allocCancel()
		return nil, err
	}

	return &BrowserFetcher{
		cfg:         cfg,
		sideClient:  &http.Client{Timeout: cfg.PageTimeout},
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		cache:       cache,
	}, nil
}

// Close reaps the shared browser process. Safe to call even if the browser
// disconnected unexpectedly (spec.md §7's "browser singleton is always
// closed on shutdown even if disconnected").
func (f *BrowserFetcher) Close() {
	f.allocCancel()
}

// Render satisfies pipeline.Renderer: the HTML pipeline's render-mode
// auto/browser stages call this to re-fetch a page through JS rendering
// rather than reaching into fetch.Fetcher's wider Conditional-aware
// interface.
func (f *BrowserFetcher) Render(ctx context.Context, url string) ([]byte, error) {
	result, err := f.Fetch(ctx, url, Conditional{})
	if err != nil {
		return nil, err
	}
	return result.Body, nil
}

// Fetch navigates to url in an isolated browser context, waits for the page
// to settle, and returns the fully rendered document. Conditional request
// headers are not honored: a rendered page has no stable ETag/Last-Modified
// the browser can negotiate on, so every browser fetch is a full render.
func (f *BrowserFetcher) Fetch(ctx context.Context, rawURL string, _ Conditional) (*Result, error) {
	if err := validateURL(rawURL, f.cfg.AllowPrivateNetworks); err != nil {
		return nil, apperrors.NewFetchError(apperrors.FetchKindSSRFBlocked, rawURL, err)
	}

	browserCtx, cancel := chromedp.NewContext(f.allocCtx)
	defer cancel()

	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, f.cfg.BrowserTimeout)
	defer cancelTimeout()

	basicUser, basicPass, target := extractEmbeddedCredentials(rawURL)

	if err := chromedp.Run(timeoutCtx,
		network.Enable(),
		fetch.Enable().WithPatterns([]*fetch.RequestPattern{{URLPattern: "*"}}),
	); err != nil {
		return nil, apperrors.NewFetchError(apperrors.FetchKindNetwork, rawURL, err)
	}

	listenCtx, stopListening := context.WithCancel(timeoutCtx)
	defer stopListening()
	chromedp.ListenTarget(listenCtx, f.interceptRequest(listenCtx, target, basicUser, basicPass))

	var html string
	var frames []string
	var shadowFragments []string
	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body, frameset", chromedp.ByQuery),
		chromedp.Sleep(500*time.Millisecond), // best-effort network-idle drain
		chromedp.ActionFunc(func(actionCtx context.Context) error {
			return chromedp.OuterHTML("html", &html, chromedp.ByQuery).Do(actionCtx)
		}),
		chromedp.ActionFunc(func(actionCtx context.Context) error {
			return chromedp.Evaluate(frameSourcesScript, &frames).Do(actionCtx)
		}),
		chromedp.ActionFunc(func(actionCtx context.Context) error {
			return chromedp.Evaluate(shadowContentScript, &shadowFragments).Do(actionCtx)
		}),
	)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded || timeoutCtx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewFetchError(apperrors.FetchKindTimeout, rawURL, err)
		}
		return nil, apperrors.NewFetchError(apperrors.FetchKindNetwork, rawURL, err)
	}

	html = f.mergeFrames(ctx, target, html, frames)
	html = appendShadowContent(html, shadowFragments)

	return &Result{
		URL:         rawURL,
		StatusCode:  200,
		ContentType: "text/html; charset=utf-8",
		Body:        []byte(html),
	}, nil
}

// frameSourcesScript collects every iframe/frame's src in declaration order,
// so mergeFrames can fetch and merge each frame's document after the main
// OuterHTML snapshot (which does not descend into cross-document frames).
const frameSourcesScript = `Array.from(document.querySelectorAll('iframe[src], frame[src]')).map(f => f.src)`

// shadowContentScript walks every element in the document for an attached
// shadow root and returns each root's innerHTML, since a shadow root's
// content is invisible to a plain outerHTML serialization of the light DOM
// (spec.md §4.1's "shadow DOMs (non-invasive: append extracted shadow
// content before </body>)").
const shadowContentScript = `(() => {
	const out = [];
	const walk = (node) => {
		if (node.shadowRoot) out.push(node.shadowRoot.innerHTML);
		for (const child of node.children || []) walk(child);
	};
	walk(document.documentElement);
	return out;
})()`

// appendShadowContent inserts extracted shadow DOM fragments (sorted by
// length, per spec.md §4.1) just before the closing </body> tag, the same
// non-invasive placement a pass that can't merge content into the natural
// DOM structure uses elsewhere in this pipeline.
func appendShadowContent(html string, fragments []string) string {
	if len(fragments) == 0 {
		return html
	}
	sorted := make([]string, len(fragments))
	copy(sorted, fragments)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && len(sorted[j-1]) > len(sorted[j]); j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	idx := strings.LastIndex(html, "</body>")
	if idx == -1 {
		return html + strings.Join(sorted, "")
	}
	return html[:idx] + strings.Join(sorted, "") + html[idx:]
}

// mergeFrames fetches each frame URL through the same browser instance and
// appends its rendered body, in declaration order, matching spec.md §4.1's
// "framesets (fetch each frame, merge in declaration order)".
func (f *BrowserFetcher) mergeFrames(ctx context.Context, targetURL, html string, frameURLs []string) string {
	if len(frameURLs) == 0 {
		return html
	}
	var merged strings.Builder
	merged.WriteString(html)
	for _, frameURL := range frameURLs {
		if frameURL == "" || frameURL == targetURL {
			continue
		}
		result, err := f.Fetch(ctx, frameURL, Conditional{})
		if err != nil {
			continue
		}
		merged.WriteString("\n<!-- frame: " + frameURL + " -->\n")
		merged.Write(result.Body)
	}
	return merged.String()
}

// interceptRequest aborts non-essential resource types, serves small cached
// GETs from the LRU without touching the network, forwards a Basic-Auth
// header for same-origin requests when the original URL carried embedded
// credentials, and otherwise lets the request through unmodified.
func (f *BrowserFetcher) interceptRequest(ctx context.Context, targetURL, basicUser, basicPass string) func(ev interface{}) {
	targetHost := hostOf(targetURL)

	return func(ev interface{}) {
		e, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}

		switch e.ResourceType {
		case network.ResourceTypeImage, network.ResourceTypeFont, network.ResourceTypeMedia:
			go func() { _ = fetch.FailRequest(e.RequestID, network.ErrorReasonBlockedByClient).Do(ctx) }()
			return
		}

		if cached, ok := f.cache.Get(e.Request.URL); ok {
			go func() {
				_ = fetch.FulfillRequest(e.RequestID, 200).
					WithResponseHeaders([]*fetch.HeaderEntry{{Name: "Content-Type", Value: cached.contentType}}).
					WithBody(base64.StdEncoding.EncodeToString(cached.body)).
					Do(ctx)
			}()
			return
		}

		var headers []*fetch.HeaderEntry
		if basicUser != "" && hostOf(e.Request.URL) == targetHost {
			token := base64.StdEncoding.EncodeToString([]byte(basicUser + ":" + basicPass))
			headers = append(headers, &fetch.HeaderEntry{Name: "Authorization", Value: "Basic " + token})
		}

		resourceType, reqURL := e.ResourceType, e.Request.URL
		go func() {
			if len(headers) > 0 {
				_ = fetch.ContinueRequest(e.RequestID).WithHeaders(headers).Do(ctx)
			} else {
				_ = fetch.ContinueRequest(e.RequestID).Do(ctx)
			}
			f.populateCache(reqURL, resourceType)
		}()
	}
}

// populateCache side-fetches a cacheable subresource (script/stylesheet,
// under the configured size threshold) so the next request for the same URL
// is served from the LRU instead of the network. Best-effort: any failure
// here only costs a future cache hit, never the page fetch itself.
func (f *BrowserFetcher) populateCache(reqURL string, resourceType network.ResourceType) {
	if resourceType != network.ResourceTypeScript && resourceType != network.ResourceTypeStylesheet {
		return
	}
	if _, ok := f.cache.Get(reqURL); ok {
		return
	}
	resp, err := f.sideClient.Get(reqURL)
	if err != nil {
		return
	}
	defer func() { _ = resp.Body.Close() }()

	limited := io.LimitReader(resp.Body, f.cfg.MaxCacheItemSizeBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil || int64(len(body)) > f.cfg.MaxCacheItemSizeBytes {
		return
	}
	f.cache.Add(reqURL, cachedResponse{body: body, contentType: resp.Header.Get("Content-Type")})
}

// extractEmbeddedCredentials pulls userinfo out of rawURL (user:pass@host)
// and returns the credential-free URL alongside it, so the browser never
// navigates to a URL containing a plaintext password in its address bar.
func extractEmbeddedCredentials(rawURL string) (user, pass, cleanURL string) {
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return "", "", rawURL
	}
	user = u.User.Username()
	pass, _ = u.User.Password()
	u.User = nil
	return user, pass, u.String()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
