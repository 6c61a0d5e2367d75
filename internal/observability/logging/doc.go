// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the application.
//
// Key features:
//   - JSON and text output formats
//   - Job ID propagation
//   - Context-aware logging
//   - Configurable log levels
//
// Example usage:
//
//	import "docsindexer/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started", slog.String("version", "1.0"))
//	}
//
//	func runJob(ctx context.Context) {
//	    logger := logging.WithJobID(ctx, slog.Default())
//	    logger.Info("processing job")
//	}
package logging
