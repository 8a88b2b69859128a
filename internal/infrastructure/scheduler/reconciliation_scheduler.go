package scheduler

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	appinventory "github.com/vaxtrack/backend/internal/application/inventory"
	"github.com/vaxtrack/backend/internal/domain/shared"
)

// ReconciliationSchedulerConfig holds configuration for the periodic
// reconciliation job
type ReconciliationSchedulerConfig struct {
	// Enabled indicates if the scheduler is running
	Enabled bool
	// Interval is the time between reconciliation runs
	Interval time.Duration
	// JobTimeout is the maximum time a single run can take
	JobTimeout time.Duration
}

// DefaultReconciliationSchedulerConfig returns the default schedule, hourly
// runs bounded to ten minutes
func DefaultReconciliationSchedulerConfig() ReconciliationSchedulerConfig {
	return ReconciliationSchedulerConfig{
		Enabled:    true,
		Interval:   time.Hour,
		JobTimeout: 10 * time.Minute,
	}
}

// ReconciliationScheduler runs the counter reconciliation job on a fixed
// interval. The job itself is single-flight, overlapping triggers report
// Busy and are skipped.
type ReconciliationScheduler struct {
	service  *appinventory.ReconciliationService
	config   ReconciliationSchedulerConfig
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewReconciliationScheduler creates a new reconciliation scheduler
func NewReconciliationScheduler(service *appinventory.ReconciliationService, config ReconciliationSchedulerConfig, logger *zap.Logger) *ReconciliationScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationScheduler{
		service:  service,
		config:   config,
		logger:   logger.Named("reconciliation-scheduler"),
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic schedule. It returns immediately, runs happen
// on a background goroutine.
func (s *ReconciliationScheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("reconciliation scheduler disabled")
		return nil
	}

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("reconciliation scheduler started",
		zap.Duration("interval", s.config.Interval),
	)
	return nil
}

// Stop halts the schedule and waits for an in-flight run to finish
func (s *ReconciliationScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	s.logger.Info("reconciliation scheduler stopped")
}

// TriggerNow runs a reconciliation pass outside the schedule
func (s *ReconciliationScheduler) TriggerNow(ctx context.Context) error {
	return s.runOnce(ctx)
}

func (s *ReconciliationScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	// Jitter up to 10% so multiple replicas don't fire in lockstep
	timer := time.NewTimer(s.jitteredInterval())
	defer timer.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		case <-timer.C:
			timer.Reset(s.jitteredInterval())
			if err := s.runOnce(ctx); err != nil {
				if errors.Is(err, shared.ErrBusy) {
					s.logger.Warn("reconciliation already running, skipping tick")
					continue
				}
				s.logger.Error("reconciliation run failed", zap.Error(err))
			}
		}
	}
}

func (s *ReconciliationScheduler) jitteredInterval() time.Duration {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return s.config.Interval
	}
	return s.config.Interval + time.Duration(rand.Int63n(maxJitter))
}

func (s *ReconciliationScheduler) runOnce(ctx context.Context) error {
	jobCtx := ctx
	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
		defer cancel()
	}

	started := time.Now()
	report, err := s.service.Reconcile(jobCtx, nil)
	if err != nil {
		return err
	}

	s.logger.Info("reconciliation run finished",
		zap.Int("products_checked", report.Checked),
		zap.Int("corrections", len(report.Corrections)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}
