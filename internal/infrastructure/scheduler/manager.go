// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"streamgate/internal/shared/logger"
)

// Job defines the interface for a periodically executed job.
type Job interface {
	Execute(ctx context.Context) error
}

// JobFunc adapts a plain function to the Job interface.
type JobFunc func(ctx context.Context) error

// Execute runs the wrapped function.
func (f JobFunc) Execute(ctx context.Context) error { return f(ctx) }

// SchedulerManager manages all scheduled jobs using gocron v2. It runs the
// session reconciler and the provider config refresh on fixed cadences.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterReconcileJob registers the session reconciliation scan. Singleton
// mode guarantees that a slow scan is never overlapped by the next tick,
// so every session moves through the state machine one observation at a
// time.
func (m *SchedulerManager) RegisterReconcileJob(job Job, interval time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval*3)
			defer cancel()
			if err := job.Execute(ctx); err != nil {
				m.logger.Errorw("session reconcile run failed", "error", err)
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("entitlement", "reconcile"),
		gocron.WithName("session-reconciler"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered session reconcile job", "interval", interval)
	return nil
}

// RegisterConfigRefreshJob registers the periodic provider snapshot
// refresh, which re-reads provider credentials and swaps them in without
// a restart.
func (m *SchedulerManager) RegisterConfigRefreshJob(job Job, interval time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := job.Execute(ctx); err != nil {
				m.logger.Errorw("provider config refresh failed", "error", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("config", "refresh"),
		gocron.WithName("config-refresher"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered config refresh job", "interval", interval)
	return nil
}

// Start starts the scheduler.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		m.logger.Warnw("scheduler already started")
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler started", "jobs", len(m.scheduler.Jobs()))
}

// Stop gracefully shuts down the scheduler, waiting for running jobs to
// finish.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	if err := m.scheduler.Shutdown(); err != nil {
		m.logger.Errorw("failed to shutdown scheduler", "error", err)
		return err
	}

	m.started = false
	m.logger.Infow("scheduler stopped")
	return nil
}
