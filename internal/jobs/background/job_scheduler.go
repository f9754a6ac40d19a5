package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stockledger/internal/jobs"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Intervals configures how often each background job runs.
type Intervals struct {
	InvitationSweep time.Duration
	LowStock        time.Duration
	Reconcile       time.Duration
}

// JobScheduler runs the periodic maintenance jobs. Every job runs in singleton
// mode so a slow run is never overlapped by the next one.
type JobScheduler struct {
	scheduler gocron.Scheduler
	logger    *zap.Logger
	timeout   time.Duration
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

func NewJobScheduler(
	logger *zap.Logger,
	intervals Intervals,
	alerts *jobs.InventoryAlertService,
	expiry *jobs.InvitationExpiryJob,
	reconcile *jobs.ReconciliationJob,
) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		logger:    logger,
		timeout:   5 * time.Minute,
		jobs:      make(map[string]gocron.Job),
	}

	if err := js.add("invitation-expiry", intervals.InvitationSweep, expiry.Run); err != nil {
		return nil, err
	}
	if err := js.add("inventory-alerts", intervals.LowStock, alerts.CheckAllTenants); err != nil {
		return nil, err
	}
	if err := js.add("ledger-reconcile", intervals.Reconcile, func(ctx context.Context) error {
		_, err := reconcile.Run(ctx)
		return err
	}); err != nil {
		return nil, err
	}

	logger.Info("registered background jobs", zap.Int("count", len(js.jobs)))
	return js, nil
}

func (js *JobScheduler) add(name string, interval time.Duration, run func(ctx context.Context) error) error {
	if interval <= 0 {
		js.logger.Info("background job disabled", zap.String("job", name))
		return nil
	}

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), js.timeout)
			defer cancel()

			start := time.Now()
			if err := run(ctx); err != nil {
				js.logger.Error("background job failed", zap.String("job", name), zap.Error(err))
				return
			}
			js.logger.Debug("background job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}

	js.mu.Lock()
	js.jobs[name] = job
	js.mu.Unlock()
	return nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	js.logger.Info("starting background job scheduler")
	js.scheduler.Start()
}

// Stop waits for running jobs and stops the scheduler.
func (js *JobScheduler) Stop() error {
	js.logger.Info("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// JobNames returns the registered job names.
func (js *JobScheduler) JobNames() []string {
	js.mu.RLock()
	defer js.mu.RUnlock()

	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	return names
}
