package store

import (
	"context"
	"testing"

	"docsindexer/internal/domain/entity"
	"github.com/google/uuid"
)

func sampleJob(library string) *entity.Job {
	return &entity.Job{
		ID:        uuid.NewString(),
		Kind:      entity.JobKindScrape,
		Library:   library,
		Version:   "1.0.0",
		SourceURL: "https://example.com/docs",
		Status:    entity.VersionStatusQueued,
	}
}

func TestCreateJobAndGetJob(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()

	job := sampleJob("react")
	if err := s.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if job.CreatedAt.IsZero() || job.UpdatedAt.IsZero() {
		t.Error("expected CreatedAt/UpdatedAt to be stamped")
	}

	got, err := s.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.ID != job.ID || got.Library != "react" || got.Status != entity.VersionStatusQueued {
		t.Errorf("GetJob = %+v, want matching %+v", got, job)
	}
}

func TestGetJobNotFound(t *testing.T) {
	s := openTestStore(t, nil)
	if _, err := s.GetJob(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown job id")
	}
}

func TestFindActiveJobMatchesDedupKey(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()

	job := sampleJob("vue")
	if err := s.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	found, ok, err := s.FindActiveJob(ctx, "vue", "1.0.0", "https://example.com/docs")
	if err != nil {
		t.Fatalf("FindActiveJob: %v", err)
	}
	if !ok || found.ID != job.ID {
		t.Fatalf("expected to find job %s, got ok=%v found=%+v", job.ID, ok, found)
	}

	if _, ok, err := s.FindActiveJob(ctx, "vue", "2.0.0", "https://example.com/docs"); err != nil || ok {
		t.Errorf("expected no match for a different version, ok=%v err=%v", ok, err)
	}
}

func TestFindActiveJobIgnoresTerminalJobs(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()

	job := sampleJob("svelte")
	if err := s.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := s.UpdateJobStatus(ctx, job.ID, entity.VersionStatusCompleted, ""); err != nil {
		t.Fatalf("UpdateJobStatus: %v", err)
	}

	_, ok, err := s.FindActiveJob(ctx, "svelte", "1.0.0", "https://example.com/docs")
	if err != nil {
		t.Fatalf("FindActiveJob: %v", err)
	}
	if ok {
		t.Error("expected a completed job not to dedup-match")
	}
}

func TestListRecoverableJobsExcludesTerminalStatuses(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()

	queued := sampleJob("a")
	running := sampleJob("b")
	running.Status = entity.VersionStatusRunning
	done := sampleJob("c")
	done.Status = entity.VersionStatusCompleted

	for _, j := range []*entity.Job{queued, running, done} {
		if err := s.CreateJob(ctx, j); err != nil {
			t.Fatalf("CreateJob: %v", err)
		}
	}

	jobs, err := s.ListRecoverableJobs(ctx)
	if err != nil {
		t.Fatalf("ListRecoverableJobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 recoverable jobs, got %d: %+v", len(jobs), jobs)
	}
	for _, j := range jobs {
		if j.Library == "c" {
			t.Error("completed job should not be recoverable")
		}
	}
}

func TestUpdateJobProgress(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()

	job := sampleJob("react")
	if err := s.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := s.UpdateJobProgress(ctx, job.ID, 5, 20); err != nil {
		t.Fatalf("UpdateJobProgress: %v", err)
	}

	got, err := s.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Progress.PagesDone != 5 || got.Progress.PagesMax != 20 {
		t.Errorf("Progress = %+v, want {5 20}", got.Progress)
	}
}

func TestUpdateJobStatusNotFound(t *testing.T) {
	s := openTestStore(t, nil)
	err := s.UpdateJobStatus(context.Background(), "missing", entity.VersionStatusFailed, "boom")
	if err == nil {
		t.Fatal("expected error for unknown job id")
	}
}

func TestListJobsFiltersByLibraryAndStatus(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()

	a := sampleJob("react")
	b := sampleJob("react")
	b.Status = entity.VersionStatusCompleted
	c := sampleJob("vue")

	for _, j := range []*entity.Job{a, b, c} {
		if err := s.CreateJob(ctx, j); err != nil {
			t.Fatalf("CreateJob: %v", err)
		}
	}

	jobs, err := s.ListJobs(ctx, JobFilter{Library: "react"})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs for react, got %d", len(jobs))
	}

	jobs, err = s.ListJobs(ctx, JobFilter{Library: "react", Statuses: []entity.VersionStatus{entity.VersionStatusQueued}})
	if err != nil {
		t.Fatalf("ListJobs filtered: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != a.ID {
		t.Fatalf("expected only the queued react job, got %+v", jobs)
	}
}
