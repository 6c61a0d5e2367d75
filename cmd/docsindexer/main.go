// Command docsindexer boots the documentation ingestion/indexing core: it
// loads configuration, opens the store, assembles the scraper strategy set
// and pipeline manager, recovers any jobs an unclean shutdown left
// in-flight, and then blocks serving the process until signalled to stop.
// The CLI, web dashboard, and MCP shells this process ultimately backs are
// out of scope here (spec.md §1) — this is the equivalent of the teacher's
// cmd/worker/main.go, generalized from a single cron-driven crawl to the
// caller-enqueued job queue internal/jobs implements.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"docsindexer/internal/config"
	"docsindexer/internal/embed"
	"docsindexer/internal/fetch"
	"docsindexer/internal/jobs"
	"docsindexer/internal/observability/logging"
	"docsindexer/internal/pipeline"
	"docsindexer/internal/scraper"
	"docsindexer/internal/service"
	"docsindexer/internal/splitter"
	"docsindexer/internal/store"
)

func main() {
	cfg, logger := loadConfig()

	st, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	manager, closeManager := newManager(cfg, st, logger)
	defer closeManager()

	svc := service.New(manager, st, cfg.App.ReadOnly)
	_ = svc // wired for the CLI/HTTP/MCP shells this process backs; see spec.md §6

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := manager.Recover(ctx); err != nil {
		logger.Error("startup job recovery failed", "error", err)
	}

	housekeeping, err := manager.StartHousekeeping("@every 1h", logger)
	if err != nil {
		logger.Error("failed to start housekeeping schedule", "error", err)
	} else {
		defer housekeeping.Stop()
	}

	logger.Info("docsindexer core started", "store_path", cfg.Store.Path, "read_only", cfg.App.ReadOnly)
	<-ctx.Done()
	logger.Info("shutting down, waiting for in-flight jobs")
}

func loadConfig() (config.AppConfig, *slog.Logger) {
	bootLogger := logging.NewLogger()
	cfg, err := config.Load(os.Getenv("DOCS_MCP_CONFIG_FILE"), bootLogger)
	if err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	return cfg, logging.NewLoggerForFormat(cfg.App.LogFormat)
}

func openStore(cfg config.AppConfig, logger *slog.Logger) (*store.Store, error) {
	embedder := newEmbedder(cfg.Embed, logger)
	return store.Open(cfg.Store, cfg.Search, cfg.Assembly, cfg.Embed, embedder, logger)
}

func newEmbedder(cfg config.EmbedSection, logger *slog.Logger) embed.Embedder {
	switch cfg.Provider {
	case "openai":
		if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
			return embed.NewOpenAI(apiKey, cfg.Model, cfg.Dimension)
		}
		logger.Warn("embed.provider=openai but OPENAI_API_KEY is unset; falling back to noop")
	case "anthropic":
		if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
			return embed.NewAnthropic(apiKey, cfg.Dimension)
		}
		logger.Warn("embed.provider=anthropic but ANTHROPIC_API_KEY is unset; falling back to noop")
	case "noop":
		// fall through to noop below
	default:
		logger.Warn("unrecognized embed.provider, falling back to noop", "provider", cfg.Provider)
	}
	return embed.NewNoop(cfg.Dimension)
}

// newManager assembles the strategy set over the fetch layer and wires it
// into a jobs.Manager, following the teacher's setupFetchService wiring
// order: transport first, then the strategies/scrapers built on it, then
// the manager that owns scheduling. The returned func calls manager.Close()
// and then reaps the browser fetcher's headless Chrome process, when render
// mode required one; callers defer it in place of calling manager.Close().
func newManager(cfg config.AppConfig, st *store.Store, logger *slog.Logger) (*jobs.Manager, func()) {
	httpFetcher := fetch.NewHTTPFetcher(cfg.Scraper)

	var gitStrategy *scraper.GitStrategy
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		gitStrategy = scraper.NewGitStrategy(fetch.NewGitFetcher(token))
	} else {
		logger.Info("GITHUB_TOKEN unset; git:// and github.com sources fall back to the web strategy")
	}

	webStrategy := scraper.NewWebStrategy(httpFetcher)
	registryStrategy := scraper.NewRegistryStrategy(httpFetcher, webStrategy)
	localFileStrategy := scraper.NewLocalFileStrategy(fetch.NewFileFetcher())

	strategies := scraper.NewStrategySet(gitStrategy, registryStrategy, localFileStrategy, webStrategy)

	splitLim := splitter.Limits{
		PreferredChunkSize: cfg.Splitter.PreferredChunkSize,
		MaxChunkSize:       cfg.Splitter.MaxChunkSize,
		MinChunkSize:       cfg.Splitter.MinChunkSize,
	}

	manager := jobs.NewManager(st, strategies, splitLim, cfg.Scraper, cfg.Jobs, logger)

	closeBrowser := func() {}
	if cfg.Scraper.RenderMode != "off" {
		browser, err := fetch.NewBrowserFetcher(cfg.Scraper)
		if err != nil {
			logger.Error("failed to start browser fetcher, pages fall back to plain HTTP fetch", "error", err)
		} else {
			manager.SetPipelineOptions(pipeline.Options{
				RenderMode:           pipeline.RenderMode(cfg.Scraper.RenderMode),
				Renderer:             browser,
				SanitizeSelectors:    pipeline.DefaultSanitizeSelectors(),
				SanitizeMaxDropRatio: 0.8,
				MaxChunkSize:         cfg.Splitter.MaxChunkSize,
			})
			closeBrowser = browser.Close
		}
	}

	return manager, func() {
		manager.Close()
		closeBrowser()
	}
}
