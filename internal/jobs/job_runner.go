package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"hireflow/internal/config"
	"hireflow/internal/logger"
	"hireflow/internal/repository"
	"hireflow/internal/service"
)

var ErrUnknownJob = errors.New("unknown job")

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	store    repository.Store
	services *service.Services
	policy   service.Policy
	config   *config.Config
	now      func() time.Time
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(store repository.Store, services *service.Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		store:    store,
		services: services,
		policy:   service.NewPolicy(cfg.Workflow),
		config:   cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

func (jr *JobRunner) registry() map[string]func(ctx context.Context) error {
	return map[string]func(ctx context.Context) error{
		"expire-stale-quotes":        jr.expireStaleQuotes,
		"expire-stale-interviews":    jr.expireStaleInterviews,
		"send-pending-review-digest": jr.sendPendingReviewDigest,
	}
}

// JobNames lists the jobs accepted by RunJob.
func (jr *JobRunner) JobNames() []string {
	names := make([]string, 0, len(jr.registry()))
	for name := range jr.registry() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunJob runs one job by name (for manual execution)
func (jr *JobRunner) RunJob(name string) error {
	job, ok := jr.registry()[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return jr.runWithRecovery(name, job)
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() error {
	var errs []error
	for _, name := range jr.JobNames() {
		if err := jr.RunJob(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	if err := jobFunc(context.Background()); err != nil {
		logger.Error("Job failed", "job", jobName, "error", err)
		return err
	}
	logger.Info("Job completed", "job", jobName)
	return nil
}
