package jobs

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"docsindexer/internal/config"
	"docsindexer/internal/domain/entity"
)

// Recover adopts every job left in a non-terminal status by an unclean
// shutdown (spec.md §4.6's "recovery on startup"). Per jobs.recoverMode
// (SPEC_FULL.md's Open Question resolution): RecoverModeRequeue re-enqueues
// each job's work from scratch, favoring forward progress over a silently
// stuck job; RecoverModeManual instead marks them failed and waits for the
// caller to re-trigger.
func (m *Manager) Recover(ctx context.Context) error {
	pending, err := m.store.ListRecoverableJobs(ctx)
	if err != nil {
		return err
	}
	for _, job := range pending {
		m.recoverOne(ctx, job)
	}
	return nil
}

func (m *Manager) recoverOne(ctx context.Context, job entity.Job) {
	logger := m.logger.With("job_id", job.ID, "library", job.Library, "version", job.Version)

	if m.recoverMode == config.RecoverModeManual {
		const msg = "left incomplete by a prior process exit; manual resume required"
		if err := m.store.UpdateJobStatus(ctx, job.ID, entity.VersionStatusFailed, msg); err != nil {
			logger.Error("failed to mark orphaned job failed", "error", err)
		}
		if job.Kind != entity.JobKindRemoveVersion {
			if err := m.store.UpdateVersionStatus(ctx, job.Library, job.Version, entity.VersionStatusFailed, msg); err != nil {
				logger.Error("failed to mark orphaned version failed", "error", err)
			}
		}
		m.bus.Publish(Event{Kind: EventStatus, JobID: job.ID, Status: string(entity.VersionStatusFailed)})
		return
	}

	logger.Info("re-queueing job orphaned by a prior process exit")
	if err := m.store.UpdateJobStatus(ctx, job.ID, entity.VersionStatusQueued, ""); err != nil {
		logger.Error("failed to re-queue orphaned job", "error", err)
		return
	}

	runner := m.runnerFor(job)
	if runner == nil {
		logger.Error("no runner for recovered job kind", "kind", job.Kind)
		return
	}
	m.dispatch(job, runner)
}

// runnerFor dispatches a recovered job to the same execution path a fresh
// enqueue would use. Refresh jobs resume with onlyIncomplete=false: after a
// crash there is no reliable record of which pages within the interrupted
// pass actually completed, so the safest re-run is the full replay.
func (m *Manager) runnerFor(job entity.Job) jobRunner {
	switch job.Kind {
	case entity.JobKindScrape:
		return func(ctx context.Context, job entity.Job, report progressFunc) error {
			return m.runScrape(ctx, job, report)
		}
	case entity.JobKindRefresh:
		return func(ctx context.Context, job entity.Job, report progressFunc) error {
			return m.runRefresh(ctx, job, false, report)
		}
	case entity.JobKindRemoveVersion:
		return func(ctx context.Context, job entity.Job, report progressFunc) error {
			_, err := m.store.RemoveVersion(ctx, job.Library, job.Version, false)
			return err
		}
	default:
		return nil
	}
}

// StartHousekeeping schedules a periodic re-run of Recover as a safety net
// beyond the one-time startup pass, generalizing the teacher's cron-driven
// worker loop (cmd/worker/main.go's startCronWorker, one robfig/cron/v3 job
// per process) from a single nightly crawl to a recurring recovery sweep.
// The caller owns the returned cron.Cron's lifetime (Stop it on shutdown).
func (m *Manager) StartHousekeeping(schedule string, logger *slog.Logger) (*cron.Cron, error) {
	if logger == nil {
		logger = m.logger
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := m.Recover(context.Background()); err != nil {
			logger.Error("housekeeping recovery sweep failed", "error", err)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
