package fx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/estudio/backend/internal/domain/fx"
	"github.com/estudio/backend/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrBackfillInterrupted signals a cancelled backfill run. Non-fatal: the
// cache is left in a valid partial state and a rerun resumes where this one
// stopped.
var ErrBackfillInterrupted = shared.NewDomainError("BACKFILL_INTERRUPTED", "Backfill was interrupted before completing")

// BackfillReport summarizes one backfill run.
//
// FetchedCount counts distinct successful provider fetches. SkippedCount
// counts dates that needed no fetch: already cached, or satisfied by a
// carry-forward fallback marker. FailedCount counts dates that ended in an
// error; those that ended specifically in RateUnavailable are also listed.
type BackfillReport struct {
	FetchedCount     int         `json:"fetched_count"`
	SkippedCount     int         `json:"skipped_count"`
	FailedCount      int         `json:"failed_count"`
	UnavailableDates []time.Time `json:"unavailable_dates,omitempty"`
}

// BackfillConfig holds backfill tuning parameters
type BackfillConfig struct {
	// RequestsPerSecond caps the provider call rate.
	RequestsPerSecond float64
}

// DefaultBackfillConfig returns the default tuning values
func DefaultBackfillConfig() BackfillConfig {
	return BackfillConfig{RequestsPerSecond: 4}
}

// BackfillJob batch-fills the rate cache over a date range. Runs are
// idempotent and resumable: already-filled dates are skipped, and
// cancellation between iterations leaves a valid partial cache.
type BackfillJob struct {
	cache    fx.RateCache
	resolver *Resolver
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewBackfillJob creates a new BackfillJob
func NewBackfillJob(cache fx.RateCache, resolver *Resolver, cfg BackfillConfig, logger *zap.Logger) *BackfillJob {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultBackfillConfig().RequestsPerSecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackfillJob{
		cache:    cache,
		resolver: resolver,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:   logger.Named("fx.backfill"),
	}
}

// Run fills every missing date in [from, to]. Cancellation is checked
// between iterations; on interruption the partial report is returned
// together with ErrBackfillInterrupted.
func (j *BackfillJob) Run(ctx context.Context, from, to time.Time) (BackfillReport, error) {
	from = fx.NormalizeDate(from)
	to = fx.NormalizeDate(to)
	if to.Before(from) {
		return BackfillReport{}, shared.NewDomainError("INVALID_RANGE", "Backfill end date precedes start date")
	}

	var report BackfillReport

	missing, err := j.cache.MissingDates(ctx, from, to)
	if err != nil {
		return report, fmt.Errorf("scanning for missing dates: %w", err)
	}

	totalDays := int(to.Sub(from).Hours()/24) + 1
	report.SkippedCount = totalDays - len(missing)

	j.logger.Info("starting backfill",
		zap.String("from", from.Format(time.DateOnly)),
		zap.String("to", to.Format(time.DateOnly)),
		zap.Int("missing", len(missing)),
	)

	for _, day := range missing {
		if err := ctx.Err(); err != nil {
			j.logger.Warn("backfill interrupted",
				zap.String("next_date", day.Format(time.DateOnly)),
				zap.Int("fetched", report.FetchedCount),
			)
			return report, ErrBackfillInterrupted
		}
		if err := j.limiter.Wait(ctx); err != nil {
			return report, ErrBackfillInterrupted
		}

		res, err := j.resolver.Resolve(ctx, day)
		switch {
		case err == nil && res.FetchedNow:
			report.FetchedCount++
		case err == nil:
			// Cached meanwhile or carried forward by a fallback marker.
			report.SkippedCount++
		default:
			report.FailedCount++
			var unavailable *fx.RateUnavailableError
			if errors.As(err, &unavailable) {
				report.UnavailableDates = append(report.UnavailableDates, day)
			} else {
				j.logger.Error("backfill resolution failed",
					zap.String("date", day.Format(time.DateOnly)),
					zap.Error(err),
				)
			}
		}
	}

	j.logger.Info("backfill finished",
		zap.Int("fetched", report.FetchedCount),
		zap.Int("skipped", report.SkippedCount),
		zap.Int("failed", report.FailedCount),
	)
	return report, nil
}
