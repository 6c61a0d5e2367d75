package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"docsindexer/internal/apperrors"
	"docsindexer/internal/config"
	"docsindexer/internal/observability/metrics"
	"docsindexer/internal/resilience/circuitbreaker"
	"docsindexer/internal/resilience/retry"
	"docsindexer/pkg/ratelimit"
)

// HTTPFetcher fetches plain HTTP/HTTPS pages. It holds one circuit breaker
// per host (lazily created) so a single failing host degrades independently
// of the rest of a crawl, the way the teacher's ReadabilityFetcher holds one
// breaker for all content fetches but scoped here per-host since a crawl
// can span many hosts in one job. A per-host sliding-window limiter paces
// requests to cfg.RequestDelay's rate, so "be polite to the origin server"
// is enforced rather than merely configured.
type HTTPFetcher struct {
	client *http.Client
	cfg    config.ScraperSection

	breakersMu sync.Mutex
	breakers   map[string]*circuitbreaker.CircuitBreaker

	limiterAlgo  *ratelimit.SlidingWindowAlgorithm
	limiterStore *ratelimit.InMemoryRateLimitStore
}

// NewHTTPFetcher builds an HTTPFetcher from scraper configuration.
func NewHTTPFetcher(cfg config.ScraperSection) *HTTPFetcher {
	f := &HTTPFetcher{
		cfg:          cfg,
		breakers:     make(map[string]*circuitbreaker.CircuitBreaker),
		limiterAlgo:  ratelimit.NewSlidingWindowAlgorithm(nil),
		limiterStore: ratelimit.NewInMemoryRateLimitStore(ratelimit.DefaultInMemoryStoreConfig()),
	}

	f.client = &http.Client{
		Timeout: cfg.PageTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("too many redirects: %d", len(via))
			}
			if err := validateURL(req.URL.String(), cfg.AllowPrivateNetworks); err != nil {
				return fmt.Errorf("redirect target validation failed: %w", err)
			}
			return nil
		},
	}

	return f
}

func (f *HTTPFetcher) breakerFor(host string) *circuitbreaker.CircuitBreaker {
	f.breakersMu.Lock()
	defer f.breakersMu.Unlock()
	if cb, ok := f.breakers[host]; ok {
		return cb
	}
	cb := circuitbreaker.New(circuitbreaker.HostFetchConfig(host))
	f.breakers[host] = cb
	return cb
}

// waitForHostSlot blocks until host's sliding window has room for one more
// request, spaced cfg.RequestDelay apart. A RequestDelay of zero disables
// pacing entirely (the crawl-politeness default is still non-zero).
func (f *HTTPFetcher) waitForHostSlot(ctx context.Context, host string) error {
	if f.cfg.RequestDelay <= 0 {
		return nil
	}
	for {
		decision, err := f.limiterAlgo.IsAllowed(ctx, host, f.limiterStore, 1, f.cfg.RequestDelay)
		if err != nil {
			return nil // best-effort pacing: a limiter bookkeeping error never blocks a fetch
		}
		if decision.Allowed {
			return nil
		}
		wait := decision.RetryAfter
		if wait <= 0 {
			wait = f.cfg.RequestDelay
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Fetch retrieves a single URL, honoring conditional headers for refreshes
// and retrying transient failures with backoff before giving up.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, cond Conditional) (*Result, error) {
	if err := validateURL(url, f.cfg.AllowPrivateNetworks); err != nil {
		return nil, apperrors.NewFetchError(apperrors.FetchKindSSRFBlocked, url, err)
	}

	host := hostOf(url)
	if err := f.waitForHostSlot(ctx, host); err != nil {
		return nil, apperrors.NewFetchError(apperrors.FetchKindNetwork, url, err)
	}

	cb := f.breakerFor(host)

	var result *Result
	retryErr := retry.WithBackoff(ctx, retry.HTTPFetchConfig(), func() error {
		raw, err := cb.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, url, cond)
		})
		if err != nil {
			return err
		}
		result = raw.(*Result)
		return nil
	})

	if retryErr != nil {
		return nil, classifyFetchErr(url, retryErr)
	}
	return result, nil
}

func (f *HTTPFetcher) doFetch(ctx context.Context, url string, cond Conditional) (*Result, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		metrics.RecordContentFetchFailed(time.Since(start))
		return nil, apperrors.NewFetchError(apperrors.FetchKindNetwork, url, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	if cond.IfNoneMatch != "" {
		req.Header.Set("If-None-Match", cond.IfNoneMatch)
	}
	if cond.IfModifiedSince != "" {
		req.Header.Set("If-Modified-Since", cond.IfModifiedSince)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		metrics.RecordContentFetchFailed(time.Since(start))
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewFetchError(apperrors.FetchKindTimeout, url, err)
		}
		return nil, apperrors.NewFetchError(apperrors.FetchKindNetwork, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotModified {
		metrics.RecordContentFetchSkipped()
		return &Result{URL: url, StatusCode: resp.StatusCode, NotModified: true}, nil
	}

	if resp.StatusCode >= 400 {
		metrics.RecordContentFetchFailed(time.Since(start))
		// Wrapping a retry.HTTPError lets retry.WithBackoff's IsRetryable
		// recognize 5xx/429/408/425 through the FetchError's Unwrap chain.
		fe := apperrors.NewFetchError(apperrors.FetchKindHTTPStatus, url,
			&retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status})
		fe.StatusCode = resp.StatusCode
		return nil, fe
	}

	limited := io.LimitReader(resp.Body, f.cfg.MaxResponseBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		metrics.RecordContentFetchFailed(time.Since(start))
		return nil, apperrors.NewFetchError(apperrors.FetchKindNetwork, url, err)
	}
	if int64(len(body)) > f.cfg.MaxResponseBytes {
		metrics.RecordContentFetchFailed(time.Since(start))
		return nil, apperrors.NewFetchError(apperrors.FetchKindTooLarge, url, fmt.Errorf("response exceeds %d bytes", f.cfg.MaxResponseBytes))
	}

	metrics.RecordContentFetchSuccess(time.Since(start), len(body))
	return &Result{
		URL:          url,
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		Body:         body,
	}, nil
}

// classifyFetchErr returns err unchanged if it is already an *apperrors.FetchError
// (the common case, since doFetch always wraps), otherwise wraps it.
func classifyFetchErr(url string, err error) error {
	if fe, ok := err.(*apperrors.FetchError); ok {
		return fe
	}
	return apperrors.NewFetchError(apperrors.FetchKindNetwork, url, err)
}

// hostOf extracts the host for circuit-breaker keying; an unparseable URL
// falls back to the raw string so every call still gets some breaker.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
