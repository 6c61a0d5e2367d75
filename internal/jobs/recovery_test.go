package jobs

import (
	"context"
	"testing"

	"docsindexer/internal/config"
	"docsindexer/internal/domain/entity"
	"docsindexer/internal/scraper"
	"docsindexer/internal/splitter"
)

func TestRecoverRequeuesOrphanedScrape(t *testing.T) {
	st := newFakeStore()
	orphan := &entity.Job{
		ID:        "orphan-1",
		Kind:      entity.JobKindScrape,
		Library:   "widgets",
		Version:   "1.0.0",
		SourceURL: "https://example.com/docs",
		Status:    entity.VersionStatusRunning,
	}
	_ = st.CreateJob(context.Background(), orphan)

	m := testManager(t, st)
	defer m.Close()

	if err := m.Recover(context.Background()); err != nil {
		t.Fatalf("Recover: %v", err)
	}

	final, err := m.WaitForJob(context.Background(), orphan.ID)
	if err != nil {
		t.Fatalf("WaitForJob: %v", err)
	}
	if final.Status != entity.VersionStatusCompleted {
		t.Fatalf("expected recovered job to complete, got status=%s error=%q", final.Status, final.Error)
	}
}

func TestRecoverManualModeMarksJobsFailed(t *testing.T) {
	st := newFakeStore()
	orphan := &entity.Job{
		ID:      "orphan-2",
		Kind:    entity.JobKindRefresh,
		Library: "widgets",
		Version: "1.0.0",
		Status:  entity.VersionStatusQueued,
	}
	_ = st.CreateJob(context.Background(), orphan)

	strategies := scraper.NewStrategySet(nil, nil, nil, scraper.NewWebStrategy(fakeFetcher{}))
	jobsCfg := config.JobsSection{MaxConcurrentJobs: 1, RecoverMode: config.RecoverModeManual, EventBufferSize: 8}
	splitLim := splitter.Limits{PreferredChunkSize: 500, MaxChunkSize: 1000, MinChunkSize: 50}
	m := NewManager(st, strategies, splitLim, config.ScraperSection{MaxDepth: 1, MaxPages: 5}, jobsCfg, nil)
	defer m.Close()

	if err := m.Recover(context.Background()); err != nil {
		t.Fatalf("Recover: %v", err)
	}

	got, err := st.GetJob(context.Background(), orphan.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != entity.VersionStatusFailed {
		t.Fatalf("expected manual recovery to mark the job failed, got %s", got.Status)
	}
}
