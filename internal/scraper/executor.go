package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"golang.org/x/sync/semaphore"

	"docsindexer/internal/apperrors"
	"docsindexer/internal/fetch"
	"docsindexer/internal/pipeline"
)

// Executor runs the shared BFS loop for any Strategy: FIFO queue per depth
// band, canonicalized-URL visited set, and a worker pool capped at
// maxConcurrency via a weighted semaphore (golang.org/x/sync/semaphore) —
// the idiomatic replacement for "async/await across I/O" (design note §9).
// Each dequeued item runs in its own goroutine; a sync.WaitGroup joins them.
type Executor struct {
	strategy     Strategy
	filter       *URLFilter
	opts         Options
	pipelineOpts pipeline.Options

	archiveMu    sync.Mutex
	archiveCache map[string]map[string][]byte // outer URL -> entry name -> body
}

// NewExecutor builds an Executor for one job.
func NewExecutor(strategy Strategy, filter *URLFilter, opts Options) *Executor {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 1
	}
	return &Executor{strategy: strategy, filter: filter, opts: opts, archiveCache: make(map[string]map[string][]byte)}
}

// WithPipelineOptions attaches the render-mode/sanitize configuration every
// page's pipeline.Context runs with. Not part of scraper.Options because
// Options is yaml.Marshaled into a job's persisted snapshot, and
// pipeline.Options carries a non-serializable Renderer.
func (e *Executor) WithPipelineOptions(po pipeline.Options) *Executor {
	e.pipelineOpts = po
	return e
}

// Run drains seed, fetching and processing each item through the pipeline,
// enqueuing newly discovered items at depth+1, and emitting one
// PageOutcome per completed page on the returned channel. The channel is
// closed once the queue empties, maxPages is reached, or ctx is cancelled.
func (e *Executor) Run(ctx context.Context, seed []QueueItem) <-chan PageOutcome {
	out := make(chan PageOutcome)

	go func() {
		defer close(out)

		var (
			mu      sync.Mutex
			visited = make(map[string]bool)
			queue   = append([]QueueItem{}, seed...)
			sem     = semaphore.NewWeighted(int64(e.opts.MaxConcurrency))
			wg      sync.WaitGroup
			done    int
		)
		inflight := 0 // dequeued items whose worker has not finished
		cond := sync.NewCond(&mu)

		for i := range queue {
			visited[canonicalize(queue[i].URL)] = true
		}

		enqueue := func(items []QueueItem) {
			mu.Lock()
			defer mu.Unlock()
			for _, it := range items {
				key := canonicalize(it.URL)
				if visited[key] {
					continue
				}
				if e.opts.MaxDepth >= 0 && it.Depth > e.opts.MaxDepth {
					continue
				}
				// Archive entries are synthesized internally, not discovered
				// links, so scope/include/exclude patterns (meant for
				// external URLs) never apply to them.
				_, _, _, isArchiveEntry := parseArchiveEntryURL(it.URL)
				if !isArchiveEntry && !e.filter.Allow(it.URL) {
					continue
				}
				visited[key] = true
				queue = append(queue, it)
			}
		}

		for {
			mu.Lock()
			// An empty queue ends the run only once no worker is running:
			// a running worker may still enqueue the links it discovers.
			for len(queue) == 0 && inflight > 0 {
				cond.Wait()
			}
			if len(queue) == 0 {
				mu.Unlock()
				break
			}
			if e.opts.MaxPages >= 0 && done >= e.opts.MaxPages {
				mu.Unlock()
				break
			}
			if ctx.Err() != nil {
				mu.Unlock()
				break
			}
			item := queue[0]
			queue = queue[1:]
			done++
			inflight++
			mu.Unlock()

			if err := sem.Acquire(ctx, 1); err != nil {
				break
			}
			wg.Add(1)
			go func(item QueueItem) {
				defer wg.Done()
				defer sem.Release(1)
				defer func() {
					mu.Lock()
					inflight--
					cond.Broadcast()
					mu.Unlock()
				}()

				outcome := e.process(ctx, item)
				if ctx.Err() == nil {
					select {
					case out <- outcome:
					case <-ctx.Done():
						return
					}
				}
				if len(outcome.NewItems) > 0 {
					enqueue(outcome.NewItems)
				}
			}(item)
		}

		wg.Wait()
	}()

	return out
}

// process fetches and pipes one item, classifying 304/404 (refresh mode)
// and otherwise running it through the pipeline and extracting links. An
// item whose URL names an archive entry (spec.md §4.1) is served from
// archiveCache instead of going through the strategy's Fetch at all.
func (e *Executor) process(ctx context.Context, item QueueItem) PageOutcome {
	if _, outerURL, entryName, ok := parseArchiveEntryURL(item.URL); ok {
		return e.processArchiveEntry(ctx, item, outerURL, entryName)
	}

	result, err := e.strategy.Fetch(ctx, item)
	if err != nil {
		var fe *apperrors.FetchError
		if asFetchError(err, &fe) {
			if fe.Kind() == apperrors.FetchKindNotModified {
				return PageOutcome{Item: item, NotModified: true}
			}
			if fe.Kind() == apperrors.FetchKindHTTPStatus && fe.StatusCode == 404 && e.opts.Refresh {
				return PageOutcome{Item: item, NotFound: true}
			}
		}
		return PageOutcome{Item: item, Err: err}
	}
	if result.NotModified {
		return PageOutcome{Item: item, Result: result, NotModified: true}
	}

	if kind := DetectArchiveKind(result.ContentType, result.URL); kind != ArchiveKindNone {
		return e.processArchive(item, kind, result)
	}

	ct := pipeline.DetectContentType(result.ContentType, result.URL)
	pc := &pipeline.Context{SourceURL: result.URL, ContentType: ct, Bytes: result.Body, Options: e.pipelineOpts}
	p := pipeline.Select(ct)
	if err := p.Run(ctx, pc); err != nil {
		return PageOutcome{Item: item, Result: result, Pipeline: pc, Err: err}
	}

	newItems, err := e.strategy.ExtractLinks(ctx, item, pc)
	if err != nil {
		return PageOutcome{Item: item, Result: result, Pipeline: pc, Err: err}
	}

	return PageOutcome{Item: item, Result: result, Pipeline: pc, NewItems: newItems}
}

// processArchive expands a freshly fetched archive into synthetic entry
// URLs, caching the entries' bytes so the executor's later dequeue of each
// entry doesn't require re-fetching or re-decompressing the whole archive.
// The container page itself produces no document, only NewItems.
func (e *Executor) processArchive(item QueueItem, kind ArchiveKind, result *fetch.Result) PageOutcome {
	entries, err := expandArchive(kind, result.Body)
	if err != nil {
		return PageOutcome{Item: item, Result: result, Err: fmt.Errorf("expand archive %s: %w", result.URL, err)}
	}

	byName := make(map[string][]byte, len(entries))
	newItems := make([]QueueItem, 0, len(entries))
	for _, en := range entries {
		byName[en.Name] = en.Body
		newItems = append(newItems, QueueItem{URL: archiveEntryURL(kind, result.URL, en.Name), Depth: item.Depth + 1})
	}

	e.archiveMu.Lock()
	e.archiveCache[result.URL] = byName
	e.archiveMu.Unlock()

	return PageOutcome{Item: item, Result: result, NewItems: newItems}
}

// processArchiveEntry pipes one cached archive entry through the content
// pipeline. Entries are treated as leaves: ExtractLinks is not called, since
// an archive entry's ownership context (its strategy) is the outer archive,
// not the synthetic entry URL.
func (e *Executor) processArchiveEntry(ctx context.Context, item QueueItem, outerURL, entryName string) PageOutcome {
	e.archiveMu.Lock()
	byName, ok := e.archiveCache[outerURL]
	e.archiveMu.Unlock()
	if !ok {
		return PageOutcome{Item: item, Err: fmt.Errorf("archive %s not yet expanded for entry %s", outerURL, entryName)}
	}
	body, ok := byName[entryName]
	if !ok {
		return PageOutcome{Item: item, Err: fmt.Errorf("archive %s has no entry %s", outerURL, entryName)}
	}

	ct := pipeline.DetectContentType("", entryName)
	pc := &pipeline.Context{SourceURL: item.URL, ContentType: ct, Bytes: body, Options: e.pipelineOpts}
	result := &fetch.Result{URL: item.URL, StatusCode: 200, ContentType: string(ct), Body: body}

	p := pipeline.Select(ct)
	if err := p.Run(ctx, pc); err != nil {
		return PageOutcome{Item: item, Result: result, Pipeline: pc, Err: err}
	}

	return PageOutcome{Item: item, Result: result, Pipeline: pc}
}

// asFetchError is a small errors.As wrapper kept local so callers don't
// need to import "errors" just for this one check.
func asFetchError(err error, target **apperrors.FetchError) bool {
	return errors.As(err, target)
}

// canonicalize normalizes a URL for the visited set: this is intentionally
// minimal (exact string match after the strategy/fetcher layer has already
// resolved relative links to absolute form); fragment-only differences are
// the main case callers rely on being collapsed.
func canonicalize(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	return u.String()
}
