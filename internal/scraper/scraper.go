// Package scraper implements the strategy layer (spec.md §4.3) and the BFS
// executor (spec.md §4.4) shared by every strategy. A strategy answers two
// questions — can you handle this input, and given this input what URLs do
// you enumerate and how do you fetch each — and never owns threading: it
// feeds queue items to the Executor, which owns the worker pool.
package scraper

import (
	"context"

	"docsindexer/internal/fetch"
	"docsindexer/internal/pipeline"
)

// ScopeMode restricts which discovered URLs stay in scope for a job.
type ScopeMode string

const (
	ScopeSubpages ScopeMode = "subpages"
	ScopeHostname ScopeMode = "hostname"
	ScopeDomain   ScopeMode = "domain"
	ScopeAny      ScopeMode = "any"
)

// QueueItem is one unit of work in the BFS executor's queue.
type QueueItem struct {
	URL   string
	Depth int

	// FromLlmsTxt marks an item seeded from an llms.txt probe rather than
	// ordinary link discovery (spec.md §4.3); such items get a ".md"
	// sibling probe before falling back to the primary fetch.
	FromLlmsTxt bool

	// Conditional carries refresh-mode caching headers; zero value for a
	// fresh (non-refresh) scrape.
	Conditional fetch.Conditional
}

// Options configures one job's strategy and executor behavior.
type Options struct {
	Scope           ScopeMode
	IncludePatterns []string
	ExcludePatterns []string

	MaxDepth       int
	MaxPages       int
	MaxConcurrency int

	// Refresh marks this as a refresh job: the llms.txt probe is skipped
	// and the queue is pre-populated by the caller from stored pages.
	Refresh bool
}

// PageOutcome is what the executor reports per completed page — spec.md
// §4.4 requires progress reported per completed page, not per dequeue.
type PageOutcome struct {
	Item        QueueItem
	Result      *fetch.Result
	Pipeline    *pipeline.Context
	NewItems    []QueueItem
	Err         error
	NotModified bool
	NotFound    bool
}

// Strategy enumerates URLs for one kind of documentation source and knows
// how to fetch each; it never manages concurrency itself.
type Strategy interface {
	Name() string

	// CanHandle reports whether this strategy owns the given input
	// (a root URL, local path, registry package spec, or git repo).
	CanHandle(input string) bool

	// Seed returns the initial queue items for a fresh (non-refresh) job.
	// Refresh jobs instead pre-populate the queue from the store and skip
	// Seed entirely (spec.md §4.4).
	Seed(ctx context.Context, input string, opts Options) ([]QueueItem, error)

	// Fetch retrieves one item's content.
	Fetch(ctx context.Context, item QueueItem) (*fetch.Result, error)

	// ExtractLinks enumerates further queue items discovered from a
	// fetched-and-piped page. The executor applies the scope/include/exclude
	// filter to them afterwards; a strategy with nothing to discover (the
	// local-file strategy) returns none.
	ExtractLinks(ctx context.Context, item QueueItem, pc *pipeline.Context) ([]QueueItem, error)
}
