// Package jobs implements the pipeline manager (spec.md §4.6): it schedules
// scrape/refresh/remove-version jobs, persists their durable state through
// internal/store, recovers in-flight work at startup, and publishes job
// events to local and remote subscribers. It is the generalization of the
// teacher's cron-driven worker (cmd/worker/main.go, internal/infra/worker)
// from "one nightly crawl" to an arbitrary, caller-enqueued job queue.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"docsindexer/internal/apperrors"
	"docsindexer/internal/config"
	"docsindexer/internal/domain/entity"
	"docsindexer/internal/jobctx"
	"docsindexer/internal/observability/logging"
	"docsindexer/internal/observability/metrics"
	"docsindexer/internal/pipeline"
	"docsindexer/internal/scraper"
	"docsindexer/internal/splitter"
	"docsindexer/internal/store"
)

// Store is the subset of *store.Store the manager depends on; narrowed to
// an interface so tests can substitute a fake rather than an on-disk SQLite
// database.
type Store interface {
	ResolveVersionID(ctx context.Context, library, version string) (int64, error)
	CreateJob(ctx context.Context, job *entity.Job) error
	GetJob(ctx context.Context, id string) (entity.Job, error)
	FindActiveJob(ctx context.Context, library, version, sourceURL string) (entity.Job, bool, error)
	ListRecoverableJobs(ctx context.Context) ([]entity.Job, error)
	ListJobs(ctx context.Context, filter store.JobFilter) ([]entity.Job, error)
	UpdateJobStatus(ctx context.Context, id string, status entity.VersionStatus, errMsg string) error
	UpdateJobProgress(ctx context.Context, id string, pagesDone, pagesMax int) error

	ListPages(ctx context.Context, library, version string) ([]entity.Page, error)
	FindPageByURL(ctx context.Context, library, version, url string) (entity.Page, bool, error)
	AddDocuments(ctx context.Context, library, version string, depth int, input store.PageInput) (*entity.Page, error)
	DeletePage(ctx context.Context, pageID int64) error
	RemoveVersion(ctx context.Context, library, version string, removeLibraryIfEmpty bool) (store.RemoveVersionResult, error)

	UpdateVersionStatus(ctx context.Context, library, version string, status entity.VersionStatus, lastError string) error
	UpdateVersionProgress(ctx context.Context, library, version string, pagesDone, pagesMax int) error
}

// ScrapeRequest enqueues a fresh crawl of a documentation source.
type ScrapeRequest struct {
	Library   string
	Version   string
	SourceURL string
	Options   scraper.Options
}

// RefreshRequest re-crawls an already-indexed version, replaying its stored
// page set rather than re-running seed/link discovery.
type RefreshRequest struct {
	Library string
	Version string

	// OnlyIncomplete limits the refresh to pages that previously failed or
	// were never completed, rather than every stored page.
	OnlyIncomplete bool
}

// RemoveVersionRequest deletes a version (and its library, if requested and
// now empty).
type RemoveVersionRequest struct {
	Library               string
	Version               string
	RemoveLibraryIfEmpty  bool
}

// jobHandle tracks the live goroutine behind one in-flight job so Cancel and
// WaitForJob can reach it; handles are removed once the job reaches a
// terminal state.
type jobHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager is the pipeline manager: it owns enqueue/cancel/wait, a
// concurrency-ceiling worker pool, and the event bus.
type Manager struct {
	store      Store
	strategies *scraper.StrategySet
	splitLim   splitter.Limits
	scraperCfg config.ScraperSection
	recoverMode config.RecoverMode

	// pipelineOpts carries the render-mode/Renderer every job's pages run
	// their pipeline.Context with. Set via SetPipelineOptions once the
	// caller has constructed a fetch.BrowserFetcher; zero value means
	// RenderMode "off" and pages never attempt browser rendering.
	pipelineOpts pipeline.Options

	bus    *EventBus
	logger *slog.Logger

	sem chan struct{}
	wg  sync.WaitGroup

	mu      sync.Mutex
	handles map[string]*jobHandle
}

// NewManager builds a Manager. sem is sized to cfg.MaxConcurrentJobs, the
// ceiling spec.md §4.6 requires ("jobs run one at a time by default, or up
// to a configured ceiling").
func NewManager(st Store, strategies *scraper.StrategySet, splitLim splitter.Limits, scraperCfg config.ScraperSection, jobsCfg config.JobsSection, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	maxConcurrent := jobsCfg.MaxConcurrentJobs
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Manager{
		store:       st,
		strategies:  strategies,
		splitLim:    splitLim,
		scraperCfg:  scraperCfg,
		recoverMode: jobsCfg.RecoverMode,
		bus:         NewEventBus(jobsCfg.EventBufferSize),
		logger:      logger,
		sem:         make(chan struct{}, maxConcurrent),
		handles:     make(map[string]*jobHandle),
	}
}

// SetPipelineOptions attaches the render-mode configuration (and the
// fetch.BrowserFetcher backing it, as a pipeline.Renderer) every job started
// after this call uses. Calling it is optional: an unset Manager runs every
// page with RenderMode "off".
func (m *Manager) SetPipelineOptions(po pipeline.Options) {
	m.pipelineOpts = po
}

// Subscribe registers a job-event listener (spec.md §6: "SSE-style
// subscription to job events").
func (m *Manager) Subscribe() (<-chan Event, func()) {
	return m.bus.Subscribe()
}

// GetJob returns one job record by id.
func (m *Manager) GetJob(ctx context.Context, id string) (entity.Job, error) {
	return m.store.GetJob(ctx, id)
}

// ListJobs returns jobs matching filter.
func (m *Manager) ListJobs(ctx context.Context, filter store.JobFilter) ([]entity.Job, error) {
	return m.store.ListJobs(ctx, filter)
}

// Close cancels every in-flight job and waits for their goroutines to exit,
// for a clean process shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	for _, h := range m.handles {
		h.cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// EnqueueScrape enqueues a fresh crawl, deduplicating against any job
// already queued or running for the same (library, version, source_url)
// (spec.md §4.6's dedup invariant).
func (m *Manager) EnqueueScrape(ctx context.Context, req ScrapeRequest) (entity.Job, error) {
	if existing, ok, err := m.store.FindActiveJob(ctx, req.Library, req.Version, req.SourceURL); err != nil {
		return entity.Job{}, err
	} else if ok {
		return existing, nil
	}

	if _, err := m.store.ResolveVersionID(ctx, req.Library, req.Version); err != nil {
		return entity.Job{}, err
	}

	snapshot, err := yaml.Marshal(req.Options)
	if err != nil {
		return entity.Job{}, fmt.Errorf("marshal scraper options: %w", err)
	}

	job := &entity.Job{
		ID:              uuid.NewString(),
		Kind:            entity.JobKindScrape,
		Library:         req.Library,
		Version:         req.Version,
		SourceURL:       req.SourceURL,
		OptionsSnapshot: string(snapshot),
		Status:          entity.VersionStatusQueued,
	}
	if err := m.store.CreateJob(ctx, job); err != nil {
		return entity.Job{}, err
	}
	if err := m.store.UpdateVersionStatus(ctx, req.Library, req.Version, entity.VersionStatusQueued, ""); err != nil {
		m.logger.Warn("failed to mark version queued", "library", req.Library, "version", req.Version, "error", err)
	}

	m.bus.Publish(Event{Kind: EventListChange})
	m.dispatch(*job, func(ctx context.Context, job entity.Job, report progressFunc) error {
		return m.runScrape(ctx, job, report)
	})
	return *job, nil
}

// EnqueueRefresh enqueues a refresh of an already-indexed version.
func (m *Manager) EnqueueRefresh(ctx context.Context, req RefreshRequest) (entity.Job, error) {
	existingJob, ok, err := m.store.FindActiveJob(ctx, req.Library, req.Version, "")
	if err != nil {
		return entity.Job{}, err
	}
	if ok {
		return existingJob, nil
	}

	pages, err := m.store.ListPages(ctx, req.Library, req.Version)
	if err != nil {
		return entity.Job{}, err
	}
	var sourceURL string
	if len(pages) > 0 {
		sourceURL = pages[0].URL
	}

	opts := scraper.Options{
		Scope:          scraper.ScopeSubpages,
		MaxDepth:       m.scraperCfg.MaxDepth,
		MaxPages:       m.scraperCfg.MaxPages,
		MaxConcurrency: m.scraperCfg.MaxConcurrentRequests,
		Refresh:        true,
	}
	snapshot, err := yaml.Marshal(opts)
	if err != nil {
		return entity.Job{}, fmt.Errorf("marshal scraper options: %w", err)
	}

	job := &entity.Job{
		ID:              uuid.NewString(),
		Kind:            entity.JobKindRefresh,
		Library:         req.Library,
		Version:         req.Version,
		SourceURL:       sourceURL,
		OptionsSnapshot: string(snapshot),
		Status:          entity.VersionStatusQueued,
	}
	if err := m.store.CreateJob(ctx, job); err != nil {
		return entity.Job{}, err
	}
	if err := m.store.UpdateVersionStatus(ctx, req.Library, req.Version, entity.VersionStatusQueued, ""); err != nil {
		m.logger.Warn("failed to mark version queued", "library", req.Library, "version", req.Version, "error", err)
	}

	m.bus.Publish(Event{Kind: EventListChange})
	m.dispatch(*job, func(ctx context.Context, job entity.Job, report progressFunc) error {
		return m.runRefresh(ctx, job, req.OnlyIncomplete, report)
	})
	return *job, nil
}

// EnqueueRemoveVersion enqueues deletion of a version's documents, pages,
// and (optionally) its library.
func (m *Manager) EnqueueRemoveVersion(ctx context.Context, req RemoveVersionRequest) (entity.Job, error) {
	if existingJob, ok, err := m.store.FindActiveJob(ctx, req.Library, req.Version, ""); err != nil {
		return entity.Job{}, err
	} else if ok {
		return existingJob, nil
	}

	job := &entity.Job{
		ID:      uuid.NewString(),
		Kind:    entity.JobKindRemoveVersion,
		Library: req.Library,
		Version: req.Version,
		Status:  entity.VersionStatusQueued,
	}
	if err := m.store.CreateJob(ctx, job); err != nil {
		return entity.Job{}, err
	}

	m.bus.Publish(Event{Kind: EventListChange})
	m.dispatch(*job, func(ctx context.Context, job entity.Job, report progressFunc) error {
		_, err := m.store.RemoveVersion(ctx, job.Library, job.Version, req.RemoveLibraryIfEmpty)
		return err
	})
	return *job, nil
}

// Cancel signals a single cancellation to the named job, per spec.md §5
// ("one signal per job"). If the job is not currently tracked (already
// terminal, or from a prior process) it returns a JobKindNotFound JobError.
func (m *Manager) Cancel(jobID string) error {
	m.mu.Lock()
	h, ok := m.handles[jobID]
	m.mu.Unlock()
	if !ok {
		return apperrors.NewJobError(apperrors.JobKindNotFound, jobID, fmt.Errorf("job is not running"))
	}
	h.cancel()
	return nil
}

// WaitForJob blocks until job reaches any terminal status (including
// cancellation), or ctx is cancelled first.
func (m *Manager) WaitForJob(ctx context.Context, jobID string) (entity.Job, error) {
	for {
		job, err := m.store.GetJob(ctx, jobID)
		if err != nil {
			return entity.Job{}, err
		}
		if job.Done() {
			return job, nil
		}

		m.mu.Lock()
		h, ok := m.handles[jobID]
		m.mu.Unlock()
		if !ok {
			// Not tracked in this process: either the job finished between
			// the read above and this check (its handle is removed only
			// after its terminal status is written), or it was adopted from
			// a prior run before its goroutine was dispatched. Re-read once;
			// if it is still not terminal, fall back to a context wait.
			job, err := m.store.GetJob(ctx, jobID)
			if err != nil {
				return entity.Job{}, err
			}
			if job.Done() {
				return job, nil
			}
			<-ctx.Done()
			return entity.Job{}, ctx.Err()
		}

		select {
		case <-h.done:
			// loop once more to read the final persisted status
		case <-ctx.Done():
			return entity.Job{}, ctx.Err()
		}
	}
}

type progressFunc func(pagesDone, pagesMax int)
type jobRunner func(ctx context.Context, job entity.Job, report progressFunc) error

// dispatch launches job's goroutine: it waits for a concurrency-ceiling
// slot, then runs run to completion and records the terminal status.
func (m *Manager) dispatch(job entity.Job, run jobRunner) {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = jobctx.WithJobID(ctx, job.ID)
	handle := &jobHandle{cancel: cancel, done: make(chan struct{})}

	m.mu.Lock()
	m.handles[job.ID] = handle
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(handle.done)
		defer func() {
			m.mu.Lock()
			delete(m.handles, job.ID)
			m.mu.Unlock()
		}()
		defer cancel()

		select {
		case m.sem <- struct{}{}:
			defer func() { <-m.sem }()
		case <-ctx.Done():
			m.finishJob(context.Background(), job, entity.VersionStatusCancelled, "cancelled before start")
			return
		}

		m.runJob(ctx, job, run)
	}()
}

// runJob marks job (and its version, when applicable) running, executes
// run, and records the terminal outcome.
func (m *Manager) runJob(ctx context.Context, job entity.Job, run jobRunner) {
	logger := logging.WithJobID(ctx, m.logger)

	runningStatus := entity.VersionStatusRunning
	if job.Kind == entity.JobKindRefresh {
		runningStatus = entity.VersionStatusUpdating
	}
	if err := m.store.UpdateJobStatus(ctx, job.ID, runningStatus, ""); err != nil {
		logger.Error("failed to mark job running", "error", err)
	}
	if job.Kind != entity.JobKindRemoveVersion {
		if err := m.store.UpdateVersionStatus(ctx, job.Library, job.Version, runningStatus, ""); err != nil {
			logger.Warn("failed to mark version running", "error", err)
		}
	}
	m.bus.Publish(Event{Kind: EventStatus, JobID: job.ID, Status: string(runningStatus)})

	report := func(pagesDone, pagesMax int) {
		if err := m.store.UpdateJobProgress(ctx, job.ID, pagesDone, pagesMax); err != nil {
			logger.Warn("failed to record job progress", "error", err)
		}
		if job.Kind != entity.JobKindRemoveVersion {
			if err := m.store.UpdateVersionProgress(ctx, job.Library, job.Version, pagesDone, pagesMax); err != nil {
				logger.Warn("failed to record version progress", "error", err)
			}
		}
		m.bus.Publish(Event{Kind: EventProgress, JobID: job.ID, PagesDone: pagesDone, PagesMax: pagesMax})
	}

	start := time.Now()
	err := run(ctx, job, report)
	metrics.RecordJobCompleted(string(job.Kind), time.Since(start))

	status := entity.VersionStatusCompleted
	errMsg := ""
	switch {
	case ctx.Err() != nil:
		status = entity.VersionStatusCancelled
		errMsg = "cancelled"
		metrics.RecordJobError(string(job.Kind), "cancelled")
	case err != nil:
		status = entity.VersionStatusFailed
		errMsg = err.Error()
		metrics.RecordJobError(string(job.Kind), "failed")
	}

	m.finishJob(context.Background(), job, status, errMsg)
}

// finishJob records the terminal status for both the job and (unless this
// is a remove-version job, which has no ongoing version to update) its
// version, and publishes the resulting events. It takes a fresh background
// context since job's own ctx may already be cancelled.
func (m *Manager) finishJob(ctx context.Context, job entity.Job, status entity.VersionStatus, errMsg string) {
	if err := m.store.UpdateJobStatus(ctx, job.ID, status, errMsg); err != nil {
		m.logger.Error("failed to record terminal job status", "job_id", job.ID, "error", err)
	}
	if job.Kind != entity.JobKindRemoveVersion {
		if err := m.store.UpdateVersionStatus(ctx, job.Library, job.Version, status, errMsg); err != nil {
			m.logger.Error("failed to record terminal version status", "job_id", job.ID, "error", err)
		}
	}
	m.bus.Publish(Event{Kind: EventStatus, JobID: job.ID, Status: string(status)})
	m.bus.Publish(Event{Kind: EventListChange})
}
