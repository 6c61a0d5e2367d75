// Package jobctx propagates the current job ID through a context.Context,
// the way the teacher's requestid package propagates an HTTP request ID:
// same context-key pattern, generalized from one HTTP request's lifetime to
// one scrape/refresh/remove-version job's lifetime.
package jobctx

import "context"

type contextKey string

const jobIDKey contextKey = "job_id"

// FromContext retrieves the job ID from the context, or "" if none is set
// (e.g. a call made outside of any job, such as an interactive search).
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(jobIDKey).(string); ok {
		return id
	}
	return ""
}

// WithJobID returns a new context carrying the given job ID.
func WithJobID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, jobIDKey, id)
}
