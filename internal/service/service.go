// Package service provides the use cases the external interfaces (spec.md
// §6: CLI, web dashboard, MCP shell) are built on. It mirrors the teacher's
// internal/usecase/article pattern — a thin Service struct delegating to a
// repository/manager, with typed input structs and sentinel errors — but
// wraps internal/jobs.Manager and internal/store.Store instead of a single
// article repository, since this surface spans both ingestion and query.
package service

import (
	"context"
	"errors"
	"fmt"

	"docsindexer/internal/domain/entity"
	"docsindexer/internal/jobs"
	"docsindexer/internal/observability/metrics"
	"docsindexer/internal/store"
)

// Sentinel errors for service-level operations, surfaced to every external
// interface (CLI exit codes, HTTP status codes, MCP error payloads) without
// each caller needing to know the store/manager's internal error taxonomy.
var (
	ErrLibraryNotFound = errors.New("library not found")
	ErrVersionNotFound = errors.New("version not found")
	ErrReadOnly        = errors.New("store is read-only")
)

// Store is the subset of *store.Store the service depends on for the query
// and introspection surface.
type Store interface {
	FindByContent(ctx context.Context, library, version, query string, limit int) ([]store.SearchHit, error)
	AssembleNeighborhood(ctx context.Context, hit entity.Chunk) (store.Neighborhood, error)
	ListLibraries(ctx context.Context) ([]entity.LibrarySummary, error)
	QueryLibraryVersions(ctx context.Context, library string) ([]entity.VersionSummary, error)
}

// Manager is the subset of *jobs.Manager the service depends on.
type Manager interface {
	EnqueueScrape(ctx context.Context, req jobs.ScrapeRequest) (entity.Job, error)
	EnqueueRefresh(ctx context.Context, req jobs.RefreshRequest) (entity.Job, error)
	EnqueueRemoveVersion(ctx context.Context, req jobs.RemoveVersionRequest) (entity.Job, error)
	Cancel(jobID string) error
	WaitForJob(ctx context.Context, jobID string) (entity.Job, error)
	GetJob(ctx context.Context, id string) (entity.Job, error)
	ListJobs(ctx context.Context, filter store.JobFilter) ([]entity.Job, error)
	Subscribe() (<-chan jobs.Event, func())
}

// Service is the core's single entry point for every consumer named in
// spec.md §6: enqueue/cancel/wait over the pipeline manager, search/
// introspection over the store.
type Service struct {
	Manager  Manager
	Store    Store
	ReadOnly bool
}

// New builds a Service. readOnly mirrors app.readOnly (spec.md §6): when
// true, every ingestion method fails fast with ErrReadOnly instead of
// reaching the manager at all.
func New(manager Manager, st Store, readOnly bool) *Service {
	return &Service{Manager: manager, Store: st, ReadOnly: readOnly}
}

// EnqueueScrape starts a fresh crawl of a documentation source.
func (s *Service) EnqueueScrape(ctx context.Context, req jobs.ScrapeRequest) (entity.Job, error) {
	if s.ReadOnly {
		return entity.Job{}, ErrReadOnly
	}
	return s.Manager.EnqueueScrape(ctx, req)
}

// EnqueueRefresh re-crawls an already-indexed version.
func (s *Service) EnqueueRefresh(ctx context.Context, library, version string, onlyIncomplete bool) (entity.Job, error) {
	if s.ReadOnly {
		return entity.Job{}, ErrReadOnly
	}
	return s.Manager.EnqueueRefresh(ctx, jobs.RefreshRequest{Library: library, Version: version, OnlyIncomplete: onlyIncomplete})
}

// EnqueueRemoveVersion deletes a version's documents, pages, and
// (optionally) its library.
func (s *Service) EnqueueRemoveVersion(ctx context.Context, library, version string) (entity.Job, error) {
	if s.ReadOnly {
		return entity.Job{}, ErrReadOnly
	}
	return s.Manager.EnqueueRemoveVersion(ctx, jobs.RemoveVersionRequest{Library: library, Version: version, RemoveLibraryIfEmpty: true})
}

// Cancel signals cancellation of a running job.
func (s *Service) Cancel(jobID string) error {
	return s.Manager.Cancel(jobID)
}

// WaitForJob blocks until job reaches a terminal status.
func (s *Service) WaitForJob(ctx context.Context, jobID string) (entity.Job, error) {
	return s.Manager.WaitForJob(ctx, jobID)
}

// GetJob returns one job's current record.
func (s *Service) GetJob(ctx context.Context, id string) (entity.Job, error) {
	return s.Manager.GetJob(ctx, id)
}

// ListJobs returns jobs matching filter.
func (s *Service) ListJobs(ctx context.Context, filter store.JobFilter) ([]entity.Job, error) {
	return s.Manager.ListJobs(ctx, filter)
}

// SubscribeJobEvents registers a listener for JOB_LIST_CHANGE/JOB_PROGRESS/
// JOB_STATUS events, backing the SSE-style subscription named in spec.md §6.
func (s *Service) SubscribeJobEvents() (<-chan jobs.Event, func()) {
	return s.Manager.Subscribe()
}

// SearchResult is one assembled hit: the matched chunk, its score, and the
// expanded context around it (parent chain, siblings, children).
type SearchResult struct {
	Hit          store.SearchHit
	Neighborhood store.Neighborhood
}

// Search answers a query against one (library, version)'s indexed content,
// assembling hierarchy context around every hit (spec.md §6's "assembled
// chunks with score and hierarchy metadata").
func (s *Service) Search(ctx context.Context, library, version, query string, limit int) ([]SearchResult, error) {
	hits, err := s.Store.FindByContent(ctx, library, version, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results := make([]SearchResult, len(hits))
	for i, hit := range hits {
		n, err := s.Store.AssembleNeighborhood(ctx, hit.Chunk)
		if err != nil {
			return nil, fmt.Errorf("search: assemble neighborhood for chunk %d: %w", hit.Chunk.ID, err)
		}
		results[i] = SearchResult{Hit: hit, Neighborhood: n}
	}
	return results, nil
}

// ListLibraries returns every indexed library.
func (s *Service) ListLibraries(ctx context.Context) ([]entity.LibrarySummary, error) {
	libraries, err := s.Store.ListLibraries(ctx)
	if err != nil {
		return nil, err
	}
	metrics.UpdateLibrariesTotal(len(libraries))
	versions := 0
	for _, lib := range libraries {
		versions += lib.VersionCount
	}
	metrics.UpdateVersionsTotal(versions)
	return libraries, nil
}

// ListVersions returns every version of library, or ErrLibraryNotFound if
// the library has no rows at all.
func (s *Service) ListVersions(ctx context.Context, library string) ([]entity.VersionSummary, error) {
	versions, err := s.Store.QueryLibraryVersions(ctx, library)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	if len(versions) == 0 {
		return nil, ErrLibraryNotFound
	}
	return versions, nil
}

// GetVersion returns one version's summary, or ErrVersionNotFound if
// library has no version matching exactly.
func (s *Service) GetVersion(ctx context.Context, library, version string) (entity.VersionSummary, error) {
	versions, err := s.ListVersions(ctx, library)
	if err != nil {
		return entity.VersionSummary{}, err
	}
	for _, v := range versions {
		if v.Version == version {
			return v, nil
		}
	}
	return entity.VersionSummary{}, ErrVersionNotFound
}
