// Package tracing provides OpenTelemetry tracing integration.
//
// It provides:
//   - Middleware: HTTP request tracing with W3C trace context propagation
//     and the trace ID returned in the X-Trace-Id response header
//   - GetTracer: the package's tracer for creating further spans
//
// The package does not install a tracer provider or an exporter; spans go
// to whatever provider is registered with otel.SetTracerProvider.
//
// Example usage:
//
//	import "docsindexer/internal/observability/tracing"
//
//	func main() {
//	    http.ListenAndServe(":8080", tracing.Middleware(mux))
//	}
//
//	func processRequest(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "process-request")
//	    defer span.End()
//	    // ... process request ...
//	}
package tracing
