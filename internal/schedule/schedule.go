// Package schedule runs the resource matcher periodically.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"dcpm/internal/contextutil"
	"dcpm/internal/service"
)

const matchJobName = "resource-match"

// MatchTrigger starts matcher jobs.
type MatchTrigger interface {
	TriggerMatch(ctx context.Context, projectID string) (*service.Job, error)
}

// Scheduler triggers a matcher run every interval. A run that is still going
// when the next one is due is not doubled up.
type Scheduler struct {
	scheduler gocron.Scheduler
	trigger   MatchTrigger
	interval  time.Duration
	job       gocron.Job
}

// New creates a scheduler. interval must be positive.
func New(trigger MatchTrigger, interval time.Duration) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("match interval must be positive, got %s", interval)
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, trigger: trigger, interval: interval}, nil
}

// Start registers the matcher job and starts the scheduler. The first run
// happens immediately. ctx supplies the logger and stops the runs when done.
func (s *Scheduler) Start(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx).With("job", matchJobName)
	ctx = contextutil.WithLogger(ctx, logger)

	j, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.runMatch(ctx) }),
		gocron.WithName(matchJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule matcher: %w", err)
	}
	s.job = j
	s.scheduler.Start()
	logger.InfoContext(ctx, "matcher scheduled", "interval", s.interval)
	return nil
}

// NextRun returns when the matcher runs next.
func (s *Scheduler) NextRun() (time.Time, error) {
	if s.job == nil {
		return time.Time{}, errors.New("scheduler not started")
	}
	return s.job.NextRun()
}

// Stop shuts the scheduler down and waits for a running trigger to return.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

// runMatch triggers a matcher job and waits for it, so the singleton mode
// covers the whole run.
func (s *Scheduler) runMatch(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	logger := contextutil.LoggerFromContext(ctx)
	job, err := s.trigger.TriggerMatch(ctx, "")
	if err != nil {
		logger.WarnContext(ctx, "failed to start scheduled match", "error", err)
		return
	}
	st, err := job.Wait(ctx)
	if err != nil {
		logger.WarnContext(ctx, "scheduled match ended with error", "job_id", st.ID, "state", st.State, "error", err)
		return
	}
	logger.DebugContext(ctx, "scheduled match finished", "job_id", st.ID, "warnings", len(st.Warnings))
}
