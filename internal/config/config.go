// Package config aggregates application configuration for the indexing
// service. Loading follows the teacher's fail-open strategy (defaults <
// YAML file < environment), built on the shared env-loading helpers in
// internal/pkg/config: an invalid value is never a fatal error, it is a
// logged warning and a fallback to the default.
//
// Every environment variable in this package is named
// DOCS_MCP_<SECTION>_<SETTING>, e.g. DOCS_MCP_SCRAPER_MAXCONCURRENTREQUESTS
// or DOCS_MCP_STORE_PATH.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	pkgconfig "docsindexer/internal/pkg/config"
)

// AppConfig is the root configuration object, assembled once at startup and
// passed down to every component by value or narrow sub-struct.
type AppConfig struct {
	App      AppSection      `yaml:"app"`
	Scraper  ScraperSection  `yaml:"scraper"`
	Splitter SplitterSection `yaml:"splitter"`
	Store    StoreSection    `yaml:"store"`
	Search   SearchSection   `yaml:"search"`
	Assembly AssemblySection `yaml:"assembly"`
	Embed    EmbedSection    `yaml:"embed"`
	Jobs     JobsSection     `yaml:"jobs"`
}

// AppSection holds process-wide settings.
type AppSection struct {
	LogLevel         string `yaml:"logLevel"`
	LogFormat        string `yaml:"logFormat"` // "json" or "text"
	TelemetryEnabled bool   `yaml:"telemetryEnabled"`

	// ReadOnly forbids every ingestion operation (spec.md §6's
	// "app.readOnly"); Search/introspection still work. Intended for a
	// read replica or a process that only ever serves queries.
	ReadOnly bool `yaml:"readOnly"`
}

// Default returns an AppConfig populated entirely with built-in defaults,
// with no file or environment overlay applied.
func Default() AppConfig {
	return AppConfig{
		App: AppSection{
			LogLevel:         "info",
			LogFormat:        "json",
			TelemetryEnabled: true,
			ReadOnly:         false,
		},
		Scraper:  defaultScraperSection(),
		Splitter: defaultSplitterSection(),
		Store:    defaultStoreSection(),
		Search:   defaultSearchSection(),
		Assembly: defaultAssemblySection(),
		Embed:    defaultEmbedSection(),
		Jobs:     defaultJobsSection(),
	}
}

// Load builds the final AppConfig: start from Default(), overlay a YAML
// file if filePath is non-empty and exists, then overlay environment
// variables. Every overlay step can only replace a field with a validated
// value; a malformed file or env var produces a warning via logger and
// otherwise leaves the prior value untouched. Load never returns an error
// for bad input — only for a file that exists but cannot be opened at all.
func Load(filePath string, logger *slog.Logger) (AppConfig, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := Default()

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config file %s: %w", filePath, err)
			}
		} else {
			fileCfg := cfg
			if err := yaml.Unmarshal(data, &fileCfg); err != nil {
				logger.Warn("ignoring malformed config file, using defaults", "path", filePath, "error", err)
			} else {
				cfg = fileCfg
			}
		}
	}

	cfg.applyEnvOverlay(logger)

	if err := cfg.Validate(); err != nil {
		logger.Warn("configuration failed validation after env overlay, reverting invalid sections to defaults", "error", err)
		cfg = repairInvalidSections(cfg, logger)
	}

	return cfg, nil
}

// applyEnvOverlay layers DOCS_MCP_* environment variables onto cfg in
// place, logging a warning (via pkgconfig.ConfigLoadResult.Warnings) for
// every value that failed to parse or validate.
func (c *AppConfig) applyEnvOverlay(logger *slog.Logger) {
	logWarnings := func(result pkgconfig.ConfigLoadResult) {
		for _, w := range result.Warnings {
			logger.Warn("configuration fallback", "detail", w)
		}
	}

	logLevel := pkgconfig.LoadEnvWithFallback("DOCS_MCP_APP_LOGLEVEL", c.App.LogLevel, validateLogLevel)
	logWarnings(logLevel)
	c.App.LogLevel = logLevel.Value.(string)

	logFormat := pkgconfig.LoadEnvWithFallback("DOCS_MCP_APP_LOGFORMAT", c.App.LogFormat, validateLogFormat)
	logWarnings(logFormat)
	c.App.LogFormat = logFormat.Value.(string)

	telemetry := pkgconfig.LoadEnvBool("DOCS_MCP_APP_TELEMETRYENABLED", c.App.TelemetryEnabled)
	c.App.TelemetryEnabled = telemetry.Value.(bool)

	readOnly := pkgconfig.LoadEnvBool("DOCS_MCP_APP_READONLY", c.App.ReadOnly)
	c.App.ReadOnly = readOnly.Value.(bool)

	c.Scraper.applyEnvOverlay(logger)
	c.Splitter.applyEnvOverlay(logger)
	c.Store.applyEnvOverlay(logger)
	c.Search.applyEnvOverlay(logger)
	c.Assembly.applyEnvOverlay(logger)
	c.Embed.applyEnvOverlay(logger)
	c.Jobs.applyEnvOverlay(logger)
}

// Validate checks every section's invariants and aggregates errors.
func (c *AppConfig) Validate() error {
	var errs []error
	if err := validateLogLevel(c.App.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("app.logLevel: %w", err))
	}
	if err := validateLogFormat(c.App.LogFormat); err != nil {
		errs = append(errs, fmt.Errorf("app.logFormat: %w", err))
	}
	if err := c.Scraper.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scraper: %w", err))
	}
	if err := c.Splitter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("splitter: %w", err))
	}
	if err := c.Store.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := c.Search.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("search: %w", err))
	}
	if err := c.Assembly.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("assembly: %w", err))
	}
	if err := c.Embed.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("embed: %w", err))
	}
	if err := c.Jobs.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("jobs: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// repairInvalidSections replaces only the sections that fail validation
// with their defaults, so one bad section doesn't discard an otherwise
// good overlay.
func repairInvalidSections(cfg AppConfig, logger *slog.Logger) AppConfig {
	defaults := Default()
	if validateLogLevel(cfg.App.LogLevel) != nil {
		cfg.App.LogLevel = defaults.App.LogLevel
	}
	if validateLogFormat(cfg.App.LogFormat) != nil {
		cfg.App.LogFormat = defaults.App.LogFormat
	}
	if cfg.Scraper.Validate() != nil {
		cfg.Scraper = defaults.Scraper
	}
	if cfg.Splitter.Validate() != nil {
		cfg.Splitter = defaults.Splitter
	}
	if cfg.Store.Validate() != nil {
		cfg.Store = defaults.Store
	}
	if cfg.Search.Validate() != nil {
		cfg.Search = defaults.Search
	}
	if cfg.Assembly.Validate() != nil {
		cfg.Assembly = defaults.Assembly
	}
	if cfg.Embed.Validate() != nil {
		cfg.Embed = defaults.Embed
	}
	if cfg.Jobs.Validate() != nil {
		cfg.Jobs = defaults.Jobs
	}
	return cfg
}

func validateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error, got %q", level)
	}
}

func validateLogFormat(format string) error {
	switch format {
	case "json", "text":
		return nil
	default:
		return fmt.Errorf("log format must be json or text, got %q", format)
	}
}
