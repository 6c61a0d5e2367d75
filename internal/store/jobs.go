package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"docsindexer/internal/apperrors"
	"docsindexer/internal/domain/entity"
)

// activeJobStatuses are the non-terminal states a dedup check or a startup
// recovery scan cares about.
var activeJobStatuses = []entity.VersionStatus{
	entity.VersionStatusQueued, entity.VersionStatusRunning, entity.VersionStatusUpdating,
}

// CreateJob persists a newly enqueued job. The caller assigns ID (a uuid)
// and Status (entity.VersionStatusQueued) before calling; CreatedAt/UpdatedAt
// are stamped by the database and returned via job.
func (s *Store) CreateJob(ctx context.Context, job *entity.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO jobs (id, kind, library, version, source_url, options_snapshot, status, pages_done, pages_max, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING created_at, updated_at
	`, job.ID, job.Kind, job.Library, job.Version, job.SourceURL, job.OptionsSnapshot,
		job.Status, job.Progress.PagesDone, job.Progress.PagesMax, job.Error).
		Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return apperrors.NewStoreError(apperrors.StoreKindConstraint, "CreateJob", err)
	}
	return nil
}

// GetJob fetches one job record by id.
func (s *Store) GetJob(ctx context.Context, id string) (entity.Job, error) {
	row := s.db.QueryRowContext(ctx, jobSelectColumns+` WHERE id = ?`, id)
	job, err := scanJobRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return entity.Job{}, apperrors.NewStoreError(apperrors.StoreKindNotFound, "GetJob",
				fmt.Errorf("job %q not found", id))
		}
		return entity.Job{}, apperrors.NewStoreError(apperrors.StoreKindConstraint, "GetJob", err)
	}
	return job, nil
}

// FindActiveJob looks for a queued/running/updating job matching the given
// dedup key, per spec.md §4.6: "enqueuing (library, version, source_url)
// while an equivalent job is queued or running returns the existing job
// id." ok is false if no such job exists.
func (s *Store) FindActiveJob(ctx context.Context, library, version, sourceURL string) (entity.Job, bool, error) {
	row := s.db.QueryRowContext(ctx, jobSelectColumns+`
		WHERE library = ? AND version = ? AND source_url = ?
		  AND status IN (?, ?, ?)
		ORDER BY created_at ASC LIMIT 1
	`, library, version, sourceURL, entity.VersionStatusQueued, entity.VersionStatusRunning, entity.VersionStatusUpdating)

	job, err := scanJobRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return entity.Job{}, false, nil
		}
		return entity.Job{}, false, apperrors.NewStoreError(apperrors.StoreKindConstraint, "FindActiveJob", err)
	}
	return job, true, nil
}

// ListRecoverableJobs returns every job left in a non-terminal status,
// oldest first, for the pipeline manager's startup recovery pass.
func (s *Store) ListRecoverableJobs(ctx context.Context) ([]entity.Job, error) {
	return s.queryJobs(ctx, jobSelectColumns+`
		WHERE status IN (?, ?, ?) ORDER BY created_at ASC
	`, entity.VersionStatusQueued, entity.VersionStatusRunning, entity.VersionStatusUpdating)
}

// JobFilter narrows ListJobs; zero-value fields are unfiltered.
type JobFilter struct {
	Library string
	Statuses []entity.VersionStatus
}

// ListJobs returns jobs matching filter, newest first.
func (s *Store) ListJobs(ctx context.Context, filter JobFilter) ([]entity.Job, error) {
	query := jobSelectColumns
	var conds []string
	var args []any

	if filter.Library != "" {
		conds = append(conds, "library = ?")
		args = append(args, filter.Library)
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, st)
		}
		conds = append(conds, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ", ")))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	return s.queryJobs(ctx, query, args...)
}

// UpdateJobStatus performs an atomic single-row status transition, mirroring
// UpdateVersionStatus's shape; errMsg is recorded for failed/cancelled jobs
// and cleared otherwise.
func (s *Store) UpdateJobStatus(ctx context.Context, id string, status entity.VersionStatus, errMsg string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, status, errMsg, id)
	if err != nil {
		return apperrors.NewStoreError(apperrors.StoreKindConstraint, "UpdateJobStatus", err)
	}
	return checkJobRowAffected(res, id, "UpdateJobStatus")
}

// UpdateJobProgress records pages_done/pages_max for a running job.
func (s *Store) UpdateJobProgress(ctx context.Context, id string, pagesDone, pagesMax int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET pages_done = ?, pages_max = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, pagesDone, pagesMax, id)
	if err != nil {
		return apperrors.NewStoreError(apperrors.StoreKindConstraint, "UpdateJobProgress", err)
	}
	return checkJobRowAffected(res, id, "UpdateJobProgress")
}

func checkJobRowAffected(res sql.Result, id, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewStoreError(apperrors.StoreKindConstraint, op+": RowsAffected", err)
	}
	if n == 0 {
		return apperrors.NewStoreError(apperrors.StoreKindNotFound, op, fmt.Errorf("job %q not found", id))
	}
	return nil
}

const jobSelectColumns = `
	SELECT id, kind, library, version, source_url, options_snapshot, status, pages_done, pages_max, error, created_at, updated_at
	FROM jobs
`

func (s *Store) queryJobs(ctx context.Context, query string, args ...any) ([]entity.Job, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreKindInvalidQuery, "queryJobs", err)
	}
	defer rows.Close()

	var out []entity.Job
	for rows.Next() {
		job, err := scanJobRow(rows)
		if err != nil {
			return nil, apperrors.NewStoreError(apperrors.StoreKindConstraint, "queryJobs: scan", err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError(apperrors.StoreKindConstraint, "queryJobs: rows", err)
	}
	return out, nil
}

func scanJobRow(row rowScanner) (entity.Job, error) {
	var j entity.Job
	err := row.Scan(&j.ID, &j.Kind, &j.Library, &j.Version, &j.SourceURL, &j.OptionsSnapshot,
		&j.Status, &j.Progress.PagesDone, &j.Progress.PagesMax, &j.Error, &j.CreatedAt, &j.UpdatedAt)
	return j, err
}
