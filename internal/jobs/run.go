package jobs

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"docsindexer/internal/domain/entity"
	"docsindexer/internal/fetch"
	"docsindexer/internal/observability/metrics"
	"docsindexer/internal/pipeline"
	"docsindexer/internal/scraper"
	"docsindexer/internal/splitter"
	"docsindexer/internal/store"
)

// runScrape drives a fresh crawl: resolve the strategy for job.SourceURL,
// seed the BFS executor, and persist every completed page.
func (m *Manager) runScrape(ctx context.Context, job entity.Job, report progressFunc) error {
	opts, err := decodeOptions(job.OptionsSnapshot)
	if err != nil {
		return err
	}

	strat := m.strategies.Resolve(job.SourceURL)
	if strat == nil {
		return fmt.Errorf("no strategy claims source %q", job.SourceURL)
	}

	seed, err := strat.Seed(ctx, job.SourceURL, opts)
	if err != nil {
		return err
	}

	filter, err := scraper.NewURLFilter(opts.Scope, job.SourceURL, opts.IncludePatterns, opts.ExcludePatterns)
	if err != nil {
		return err
	}

	return m.drain(ctx, job, strat, filter, opts, seed, report)
}

// runRefresh replays a version's stored page set through the BFS executor
// in refresh mode, instead of re-running seed/link discovery (spec.md
// §4.4). onlyIncomplete narrows the replay to pages that are not already
// fully indexed, when the version's prior attempt was partial.
func (m *Manager) runRefresh(ctx context.Context, job entity.Job, onlyIncomplete bool, report progressFunc) error {
	opts, err := decodeOptions(job.OptionsSnapshot)
	if err != nil {
		return err
	}
	opts.Refresh = true

	pages, err := m.store.ListPages(ctx, job.Library, job.Version)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return nil
	}

	strat := m.strategies.Resolve(job.SourceURL)
	if strat == nil {
		return fmt.Errorf("no strategy claims source %q", job.SourceURL)
	}

	seed := make([]scraper.QueueItem, 0, len(pages))
	for _, p := range pages {
		if onlyIncomplete && p.Title != "" {
			continue
		}
		ifNoneMatch, ifModifiedSince := p.ConditionalHeaders()
		seed = append(seed, scraper.QueueItem{
			URL:         p.URL,
			Depth:       p.Depth,
			FromLlmsTxt: p.FromLlmsTxt,
			Conditional: fetch.Conditional{IfNoneMatch: ifNoneMatch, IfModifiedSince: ifModifiedSince},
		})
	}
	if len(seed) == 0 {
		return nil
	}

	filter, err := scraper.NewURLFilter(opts.Scope, job.SourceURL, opts.IncludePatterns, opts.ExcludePatterns)
	if err != nil {
		return err
	}

	return m.drain(ctx, job, strat, filter, opts, seed, report)
}

// drain runs the BFS executor over seed and persists every outcome,
// reporting progress as pages complete (spec.md §5: "progress events ...
// delivered in non-decreasing pages_done order", which a single incrementing
// counter guarantees by construction).
func (m *Manager) drain(ctx context.Context, job entity.Job, strat scraper.Strategy, filter *scraper.URLFilter, opts scraper.Options, seed []scraper.QueueItem, report progressFunc) error {
	executor := scraper.NewExecutor(strat, filter, opts).WithPipelineOptions(m.pipelineOpts)
	outcomes := executor.Run(ctx, seed)

	var pagesDone int
	var firstErr error

	for outcome := range outcomes {
		pagesDone++
		report(pagesDone, opts.MaxPages)

		switch {
		case outcome.NotFound:
			metrics.RecordPageFetch(job.Library, "not_modified")
			if err := m.removeStalePage(ctx, job, outcome.Item.URL); err != nil && firstErr == nil {
				firstErr = err
			}
		case outcome.NotModified:
			// Page unchanged since the prior scrape; nothing to persist.
			metrics.RecordPageFetch(job.Library, "not_modified")
		case outcome.Err != nil:
			metrics.RecordPageFetch(job.Library, "failure")
			m.logger.Warn("page processing error", "job_id", job.ID, "url", outcome.Item.URL, "error", outcome.Err)
		default:
			metrics.RecordPageFetch(job.Library, "success")
			if err := m.persistPage(ctx, job, outcome); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// persistPage splits the pipeline's output and writes it through
// AddDocuments, completing one pass of spec.md §4.5's addDocuments
// contract.
func (m *Manager) persistPage(ctx context.Context, job entity.Job, outcome scraper.PageOutcome) error {
	pc := outcome.Pipeline
	language := pc.Metadata["language"]
	chunks := splitter.Split(splitterContentType(pc.ContentType), pc.Text, language, m.splitLim)

	input := store.PageInput{
		URL:          outcome.Result.URL,
		Title:        pc.Title,
		ContentType:  outcome.Result.ContentType,
		ETag:         outcome.Result.ETag,
		LastModified: outcome.Result.LastModified,
		Depth:        outcome.Item.Depth,
		FromLlmsTxt:  outcome.Item.FromLlmsTxt,
		Chunks:       chunks,
	}
	_, err := m.store.AddDocuments(ctx, job.Library, job.Version, outcome.Item.Depth, input)
	return err
}

// removeStalePage deletes a page (and its chunks) that a refresh found
// gone, per spec.md §8 invariant 7.
func (m *Manager) removeStalePage(ctx context.Context, job entity.Job, pageURL string) error {
	page, ok, err := m.store.FindPageByURL(ctx, job.Library, job.Version, pageURL)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return m.store.DeletePage(ctx, page.ID)
}

// splitterContentType maps the pipeline's content classification onto the
// splitter's, collapsing HTML into markdown: the HTML pipeline's last
// stage always leaves its Markdown conversion in pc.Text, so by the time
// content reaches the splitter there is no HTML left to handle specially.
func splitterContentType(ct pipeline.ContentType) splitter.ContentType {
	switch ct {
	case pipeline.ContentHTML, pipeline.ContentMarkdown:
		return splitter.ContentMarkdown
	case pipeline.ContentJSON:
		return splitter.ContentJSON
	case pipeline.ContentSourceCode:
		return splitter.ContentSourceCode
	default:
		return splitter.ContentText
	}
}

func decodeOptions(snapshot string) (scraper.Options, error) {
	var opts scraper.Options
	if snapshot == "" {
		return opts, nil
	}
	if err := yaml.Unmarshal([]byte(snapshot), &opts); err != nil {
		return opts, fmt.Errorf("decode options snapshot: %w", err)
	}
	return opts, nil
}
