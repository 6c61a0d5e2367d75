// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics (duration, count, size)
//   - Business metrics (libraries, versions, pages fetched, job outcomes)
//   - Content fetch and database query metrics
//
// All metrics are automatically registered with the Prometheus default registry.
//
// Example usage:
//
//	import "docsindexer/internal/observability/metrics"
//
//	func runJob(kind string) {
//	    start := time.Now()
//	    // ... run job ...
//	    metrics.RecordJobCompleted(kind, time.Since(start))
//	}
package metrics
