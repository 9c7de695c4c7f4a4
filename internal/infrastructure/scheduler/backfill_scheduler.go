// Package scheduler runs the nightly rate backfill over a trailing window.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	fxapp "github.com/estudio/backend/internal/application/fx"
	"github.com/estudio/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// BackfillRunner runs a backfill over a date range
type BackfillRunner interface {
	Run(ctx context.Context, from, to time.Time) (fxapp.BackfillReport, error)
}

// BackfillScheduler triggers a daily backfill of the trailing window at the
// configured local time. Failed runs are retried a bounded number of times;
// a still-failing run is abandoned until the next day, since backfills are
// idempotent and the next run covers the same gaps.
type BackfillScheduler struct {
	job    BackfillRunner
	cfg    config.SchedulerConfig
	logger *zap.Logger

	stopCh chan struct{}
	doneWg sync.WaitGroup
	once   sync.Once
}

// NewBackfillScheduler creates a new BackfillScheduler
func NewBackfillScheduler(job BackfillRunner, cfg config.SchedulerConfig, logger *zap.Logger) *BackfillScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackfillScheduler{
		job:    job,
		cfg:    cfg,
		logger: logger.Named("scheduler.backfill"),
		stopCh: make(chan struct{}),
	}
}

// Start launches the scheduling loop in a background goroutine
func (s *BackfillScheduler) Start() {
	s.doneWg.Add(1)
	go s.loop()
	s.logger.Info("backfill scheduler started",
		zap.String("run_at", s.cfg.RunAt),
		zap.Int("window_days", s.cfg.WindowDays),
	)
}

// Stop signals the loop to exit and waits for any in-flight run to finish
func (s *BackfillScheduler) Stop() {
	s.once.Do(func() { close(s.stopCh) })
	s.doneWg.Wait()
	s.logger.Info("backfill scheduler stopped")
}

func (s *BackfillScheduler) loop() {
	defer s.doneWg.Done()
	for {
		wait := time.Until(s.nextRun(time.Now()))
		timer := time.NewTimer(wait)
		select {
		case <-s.stopCh:
			timer.Stop()
			return
		case <-timer.C:
			s.runOnce()
		}
	}
}

// nextRun returns the next occurrence of the configured HH:MM after now
func (s *BackfillScheduler) nextRun(now time.Time) time.Time {
	at, err := time.Parse("15:04", s.cfg.RunAt)
	if err != nil {
		// Config validation rejects bad values; keep a sane default anyway.
		at = time.Date(0, 1, 1, 3, 0, 0, 0, time.UTC)
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// runOnce executes one scheduled backfill with bounded retries
func (s *BackfillScheduler) runOnce() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel the in-flight run if Stop is called.
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	to := time.Now()
	from := to.AddDate(0, 0, -s.cfg.WindowDays)

	for attempt := 1; attempt <= s.cfg.RetryAttempts; attempt++ {
		report, err := s.job.Run(ctx, from, to)
		if err == nil {
			s.logger.Info("scheduled backfill complete",
				zap.Int("fetched", report.FetchedCount),
				zap.Int("skipped", report.SkippedCount),
				zap.Int("failed", report.FailedCount),
			)
			return
		}
		if errors.Is(err, fxapp.ErrBackfillInterrupted) {
			s.logger.Info("scheduled backfill interrupted by shutdown")
			return
		}

		s.logger.Error("scheduled backfill failed",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt == s.cfg.RetryAttempts {
			return
		}
		select {
		case <-s.stopCh:
			return
		case <-time.After(s.cfg.RetryDelay):
		}
	}
}
