package config

import (
	"fmt"
	"log/slog"

	pkgconfig "docsindexer/internal/pkg/config"
)

// RecoverMode controls how the pipeline manager treats jobs left in a
// non-terminal status by an unclean shutdown.
type RecoverMode string

const (
	// RecoverModeRequeue re-enqueues every running/queued job found at
	// startup (SPEC_FULL.md's Open Question resolution, default).
	RecoverModeRequeue RecoverMode = "requeue"
	// RecoverModeManual leaves orphaned jobs marked failed and waits for
	// the caller to explicitly re-trigger them.
	RecoverModeManual RecoverMode = "manual"
)

func (m RecoverMode) valid() bool {
	return m == RecoverModeRequeue || m == RecoverModeManual
}

// JobsSection controls the pipeline manager / job queue (spec.md §4.6).
type JobsSection struct {
	MaxConcurrentJobs int         `yaml:"maxConcurrentJobs"`
	RecoverMode       RecoverMode `yaml:"recoverMode"`

	// EventBufferSize is the per-subscriber channel capacity of the
	// process-local event bus; a slow subscriber drops the oldest event
	// rather than blocking the publisher.
	EventBufferSize int `yaml:"eventBufferSize"`
}

func defaultJobsSection() JobsSection {
	return JobsSection{
		MaxConcurrentJobs: 1,
		RecoverMode:       RecoverModeRequeue,
		EventBufferSize:   64,
	}
}

func (j *JobsSection) Validate() error {
	var errs []error
	if err := pkgconfig.ValidateIntRange(j.MaxConcurrentJobs, 1, 32); err != nil {
		errs = append(errs, fmt.Errorf("maxConcurrentJobs: %w", err))
	}
	if !j.RecoverMode.valid() {
		errs = append(errs, fmt.Errorf("recoverMode: must be requeue or manual, got %q", j.RecoverMode))
	}
	if j.EventBufferSize <= 0 {
		errs = append(errs, fmt.Errorf("eventBufferSize: must be positive, got %d", j.EventBufferSize))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%v", errs)
	}
	return nil
}

func (j *JobsSection) applyEnvOverlay(logger *slog.Logger) {
	r := pkgconfig.LoadEnvInt("DOCS_MCP_JOBS_MAXCONCURRENTJOBS", j.MaxConcurrentJobs,
		func(v int) error { return pkgconfig.ValidateIntRange(v, 1, 32) })
	for _, w := range r.Warnings {
		logger.Warn("configuration fallback", "detail", w)
	}
	j.MaxConcurrentJobs = r.Value.(int)

	mode := pkgconfig.LoadEnvWithFallback("DOCS_MCP_JOBS_RECOVERMODE", string(j.RecoverMode),
		func(v string) error {
			if !RecoverMode(v).valid() {
				return fmt.Errorf("must be requeue or manual")
			}
			return nil
		})
	for _, w := range mode.Warnings {
		logger.Warn("configuration fallback", "detail", w)
	}
	j.RecoverMode = RecoverMode(mode.Value.(string))

	r = pkgconfig.LoadEnvInt("DOCS_MCP_JOBS_EVENTBUFFERSIZE", j.EventBufferSize, nil)
	for _, w := range r.Warnings {
		logger.Warn("configuration fallback", "detail", w)
	}
	j.EventBufferSize = r.Value.(int)
}
