package embed

import (
	"log/slog"
	"os"

	"docsindexer/internal/config"
)

// ForConfig builds the Embedder named by cfg.Provider. Credentials are read
// from the environment (OPENAI_API_KEY / ANTHROPIC_API_KEY) rather than the
// YAML config, matching the teacher's summarizer constructors
// (NewOpenAI(apiKey, ...), NewClaude(apiKey)) which never put secrets in a
// config file. A provider with no credentials configured degrades to Noop
// rather than failing store construction (spec.md §4.5).
func ForConfig(cfg config.EmbedSection, logger *slog.Logger) Embedder {
	switch cfg.Provider {
	case "openai":
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			return NewOpenAI(key, cfg.Model, cfg.Dimension)
		}
		logger.Warn("embed.provider is openai but OPENAI_API_KEY is unset; vector search disabled")
		return NewNoop(cfg.Dimension)
	case "anthropic":
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			return NewAnthropic(key, cfg.Dimension)
		}
		logger.Warn("embed.provider is anthropic but ANTHROPIC_API_KEY is unset; vector search disabled")
		return NewNoop(cfg.Dimension)
	default:
		return NewNoop(cfg.Dimension)
	}
}
