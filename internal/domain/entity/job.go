package entity

import "time"

// JobKind distinguishes the operations the pipeline manager can queue.
type JobKind string

const (
	JobKindScrape       JobKind = "scrape"
	JobKindRefresh      JobKind = "refresh"
	JobKindRemoveVersion JobKind = "remove_version"
)

// Valid reports whether k is a known JobKind.
func (k JobKind) Valid() bool {
	switch k {
	case JobKindScrape, JobKindRefresh, JobKindRemoveVersion:
		return true
	}
	return false
}

// Job is a unit of work tracked by the pipeline manager: one enqueued
// scrape, refresh, or version removal. Jobs are persisted so a process
// restart can recover in-flight work (see internal/jobs recovery and
// SPEC_FULL.md's jobs.recoverMode).
type Job struct {
	ID string // uuid

	Kind    JobKind
	Library string
	Version string

	// OptionsSnapshot is the YAML-serialized ScraperOptions the job was
	// enqueued with, reused verbatim on internal retry and surfaced to
	// callers inspecting job history.
	OptionsSnapshot string

	// SourceURL is echoed from the enqueue request so a caller listing jobs
	// can show where a scrape/refresh pulls from without joining Version.
	SourceURL string

	Status   VersionStatus
	Progress Progress
	Error    string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks that the job is well-formed before it is persisted.
func (j *Job) Validate() error {
	if !j.Kind.Valid() {
		return &ValidationError{Field: "kind", Message: "unknown job kind: " + string(j.Kind)}
	}
	if err := ValidateLibraryName(j.Library); err != nil {
		return err
	}
	if !j.Status.Valid() {
		return &ValidationError{Field: "status", Message: "unknown job status: " + string(j.Status)}
	}
	return nil
}

// Done reports whether the job has reached a terminal status and will not
// be touched by the pipeline manager again.
func (j *Job) Done() bool {
	return j.Status.Terminal()
}
