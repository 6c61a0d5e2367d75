package config

import (
	"fmt"
	"log/slog"
	"time"

	pkgconfig "docsindexer/internal/pkg/config"
)

// ScraperSection controls the BFS executor and fetch layer (spec.md §4.3,
// §4.4, §5).
type ScraperSection struct {
	MaxConcurrentRequests int           `yaml:"maxConcurrentRequests"`
	MaxDepth              int           `yaml:"maxDepth"`
	MaxPages              int           `yaml:"maxPages"`
	PageTimeout           time.Duration `yaml:"pageTimeout"`
	RequestDelay          time.Duration `yaml:"requestDelay"`

	// UserAgent is sent on every HTTP fetch.
	UserAgent string `yaml:"userAgent"`

	// RespectRobotsTxt toggles the robots.txt preflight check.
	RespectRobotsTxt bool `yaml:"respectRobotsTxt"`

	// MaxRedirects caps the redirect chain length followed per fetch.
	MaxRedirects int `yaml:"maxRedirects"`

	// MaxResponseBytes bounds a single fetched response body.
	MaxResponseBytes int64 `yaml:"maxResponseBytes"`

	// AllowPrivateNetworks permits fetching from loopback/private/link-local
	// hosts, needed for intranet documentation and localhost dev servers.
	// Left false by default so public deployments get SSRF protection
	// without an explicit opt-in.
	AllowPrivateNetworks bool `yaml:"allowPrivateNetworks"`

	// BrowserTimeout bounds one browser-rendered fetch, end to end (context
	// creation through network-idle drain).
	BrowserTimeout time.Duration `yaml:"browserTimeoutMs"`

	// MaxCacheItems and MaxCacheItemSizeBytes bound the browser fetcher's
	// subresource LRU cache: at most this many entries, each no larger than
	// this many bytes.
	MaxCacheItems         int   `yaml:"maxCacheItems"`
	MaxCacheItemSizeBytes int64 `yaml:"maxCacheItemSizeBytes"`

	// RenderMode is one of "off", "auto", or "browser" (pipeline.RenderMode):
	// whether the HTML pipeline re-fetches a page through the browser
	// fetcher before parsing it.
	RenderMode string `yaml:"renderMode"`
}

func defaultScraperSection() ScraperSection {
	return ScraperSection{
		MaxConcurrentRequests: 3,
		MaxDepth:              Unlimited,
		MaxPages:              Unlimited,
		PageTimeout:           30 * time.Second,
		RequestDelay:          100 * time.Millisecond,
		UserAgent:             "docsindexer/1.0 (+https://github.com)",
		RespectRobotsTxt:      true,
		MaxRedirects:          5,
		MaxResponseBytes:      30 * 1024 * 1024,
		BrowserTimeout:        60 * time.Second,
		MaxCacheItems:         256,
		MaxCacheItemSizeBytes: 512 * 1024,
		RenderMode:            "off",
	}
}

// Unlimited marks a scraper depth/page-count bound as having no ceiling.
const Unlimited = -1

func (s *ScraperSection) Validate() error {
	var errs []error
	if err := pkgconfig.ValidateIntRange(s.MaxConcurrentRequests, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("maxConcurrentRequests: %w", err))
	}
	if s.MaxDepth != Unlimited && s.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("maxDepth: must be -1 (unlimited) or non-negative, got %d", s.MaxDepth))
	}
	if s.MaxPages != Unlimited && s.MaxPages < 0 {
		errs = append(errs, fmt.Errorf("maxPages: must be -1 (unlimited) or non-negative, got %d", s.MaxPages))
	}
	if err := pkgconfig.ValidatePositiveDuration(s.PageTimeout); err != nil {
		errs = append(errs, fmt.Errorf("pageTimeout: %w", err))
	}
	if s.RequestDelay < 0 {
		errs = append(errs, fmt.Errorf("requestDelay: must be non-negative, got %v", s.RequestDelay))
	}
	if s.UserAgent == "" {
		errs = append(errs, fmt.Errorf("userAgent: must not be empty"))
	}
	if err := pkgconfig.ValidateIntRange(s.MaxRedirects, 0, 20); err != nil {
		errs = append(errs, fmt.Errorf("maxRedirects: %w", err))
	}
	if s.MaxResponseBytes <= 0 {
		errs = append(errs, fmt.Errorf("maxResponseBytes: must be positive, got %d", s.MaxResponseBytes))
	}
	if err := pkgconfig.ValidatePositiveDuration(s.BrowserTimeout); err != nil {
		errs = append(errs, fmt.Errorf("browserTimeoutMs: %w", err))
	}
	if s.MaxCacheItems < 0 {
		errs = append(errs, fmt.Errorf("maxCacheItems: must be non-negative, got %d", s.MaxCacheItems))
	}
	if s.MaxCacheItemSizeBytes < 0 {
		errs = append(errs, fmt.Errorf("maxCacheItemSizeBytes: must be non-negative, got %d", s.MaxCacheItemSizeBytes))
	}
	switch s.RenderMode {
	case "off", "auto", "browser":
	default:
		errs = append(errs, fmt.Errorf("renderMode: must be one of off, auto, browser, got %q", s.RenderMode))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%v", errs)
	}
	return nil
}

func (s *ScraperSection) applyEnvOverlay(logger *slog.Logger) {
	logWarnings := func(result pkgconfig.ConfigLoadResult) {
		for _, w := range result.Warnings {
			logger.Warn("configuration fallback", "detail", w)
		}
	}

	r := pkgconfig.LoadEnvInt("DOCS_MCP_SCRAPER_MAXCONCURRENTREQUESTS", s.MaxConcurrentRequests,
		func(v int) error { return pkgconfig.ValidateIntRange(v, 1, 50) })
	logWarnings(r)
	s.MaxConcurrentRequests = r.Value.(int)

	r = pkgconfig.LoadEnvInt("DOCS_MCP_SCRAPER_MAXDEPTH", s.MaxDepth, nil)
	logWarnings(r)
	s.MaxDepth = r.Value.(int)

	r = pkgconfig.LoadEnvInt("DOCS_MCP_SCRAPER_MAXPAGES", s.MaxPages, nil)
	logWarnings(r)
	s.MaxPages = r.Value.(int)

	d := pkgconfig.LoadEnvDuration("DOCS_MCP_SCRAPER_PAGETIMEOUT", s.PageTimeout, pkgconfig.ValidatePositiveDuration)
	logWarnings(d)
	s.PageTimeout = d.Value.(time.Duration)

	d = pkgconfig.LoadEnvDuration("DOCS_MCP_SCRAPER_REQUESTDELAY", s.RequestDelay, nil)
	logWarnings(d)
	s.RequestDelay = d.Value.(time.Duration)

	s.UserAgent = pkgconfig.LoadEnvString("DOCS_MCP_SCRAPER_USERAGENT", s.UserAgent)

	b := pkgconfig.LoadEnvBool("DOCS_MCP_SCRAPER_RESPECTROBOTSTXT", s.RespectRobotsTxt)
	s.RespectRobotsTxt = b.Value.(bool)

	r = pkgconfig.LoadEnvInt("DOCS_MCP_SCRAPER_MAXREDIRECTS", s.MaxRedirects,
		func(v int) error { return pkgconfig.ValidateIntRange(v, 0, 20) })
	logWarnings(r)
	s.MaxRedirects = r.Value.(int)

	r = pkgconfig.LoadEnvInt("DOCS_MCP_SCRAPER_MAXRESPONSEBYTES", int(s.MaxResponseBytes), nil)
	logWarnings(r)
	s.MaxResponseBytes = int64(r.Value.(int))

	b = pkgconfig.LoadEnvBool("DOCS_MCP_SCRAPER_ALLOWPRIVATENETWORKS", s.AllowPrivateNetworks)
	s.AllowPrivateNetworks = b.Value.(bool)

	d = pkgconfig.LoadEnvDuration("DOCS_MCP_SCRAPER_BROWSERTIMEOUTMS", s.BrowserTimeout, pkgconfig.ValidatePositiveDuration)
	logWarnings(d)
	s.BrowserTimeout = d.Value.(time.Duration)

	r = pkgconfig.LoadEnvInt("DOCS_MCP_SCRAPER_MAXCACHEITEMS", s.MaxCacheItems,
		func(v int) error {
			if v < 0 {
				return fmt.Errorf("must be non-negative")
			}
			return nil
		})
	logWarnings(r)
	s.MaxCacheItems = r.Value.(int)

	r = pkgconfig.LoadEnvInt("DOCS_MCP_SCRAPER_MAXCACHEITEMSIZEBYTES", int(s.MaxCacheItemSizeBytes),
		func(v int) error {
			if v < 0 {
				return fmt.Errorf("must be non-negative")
			}
			return nil
		})
	logWarnings(r)
	s.MaxCacheItemSizeBytes = int64(r.Value.(int))

	s.RenderMode = pkgconfig.LoadEnvString("DOCS_MCP_SCRAPER_RENDERMODE", s.RenderMode)
}
