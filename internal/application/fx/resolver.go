package fx

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/estudio/backend/internal/domain/fx"
	"github.com/estudio/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Resolution is the outcome of resolving a rate for a date
type Resolution struct {
	Rate decimal.Decimal `json:"rate"`
	// RateDate is the date the returned value was actually quoted for;
	// earlier than the requested date for fallback resolutions.
	RateDate time.Time     `json:"rate_date"`
	Source   fx.RateSource `json:"source"`
	// Stale is the caller-facing warning that the rate is a carry-forward
	// from an earlier trading day.
	Stale bool `json:"stale"`
	// FetchedNow is true when this resolution performed the successful
	// provider call (as opposed to serving a cached value).
	FetchedNow bool `json:"-"`
}

// ResolverConfig holds resolver tuning parameters
type ResolverConfig struct {
	// LookbackDays bounds how far back a fallback may reach.
	LookbackDays int
	// MaxAttempts is the total number of provider calls per resolution
	// (first try plus retries).
	MaxAttempts int
	// InitialBackoff seeds the exponential retry schedule.
	InitialBackoff time.Duration
}

// DefaultResolverConfig returns the default tuning values
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		LookbackDays:   7,
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
	}
}

// Resolver resolves a usable exchange rate for an arbitrary calendar date:
// exact cache hit, else one deduplicated provider fetch with bounded retry,
// else nearest-earlier fallback within the lookback window.
type Resolver struct {
	cache    fx.RateCache
	provider fx.RateProvider
	cfg      ResolverConfig
	logger   *zap.Logger
	group    singleflight.Group
}

// NewResolver creates a new Resolver
func NewResolver(cache fx.RateCache, provider fx.RateProvider, cfg ResolverConfig, logger *zap.Logger) *Resolver {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = DefaultResolverConfig().LookbackDays
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultResolverConfig().MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultResolverConfig().InitialBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		cache:    cache,
		provider: provider,
		cfg:      cfg,
		logger:   logger.Named("fx.resolver"),
	}
}

// Resolve returns the exchange rate for a date. Concurrent calls for the
// same date collapse to a single provider call; all callers share the
// result. Fails with *fx.RateUnavailableError when neither the provider nor
// the lookback window can produce a rate.
func (r *Resolver) Resolve(ctx context.Context, date time.Time) (Resolution, error) {
	day := fx.NormalizeDate(date)
	key := day.Format(time.DateOnly)

	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.resolve(ctx, day)
	})
	if err != nil {
		return Resolution{}, err
	}
	return v.(Resolution), nil
}

func (r *Resolver) resolve(ctx context.Context, day time.Time) (Resolution, error) {
	cached, err := r.cache.Get(ctx, day)
	if err == nil {
		return resolutionFromRate(cached, false), nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return Resolution{}, err
	}

	rate, provErr := r.lookupWithRetry(ctx, day)
	if provErr == nil {
		return r.storeFetched(ctx, day, rate)
	}

	if errors.Is(provErr, fx.ErrRateNotFound) {
		// Non-trading day: permanent for this date, persist a marker so
		// later resolutions hit the cache.
		return r.fallback(ctx, day, provErr, true)
	}

	r.logger.Warn("provider exhausted, attempting fallback",
		zap.String("date", day.Format(time.DateOnly)),
		zap.Error(provErr),
	)
	// Transient failure: fall back without persisting, a later attempt
	// may still fetch the true rate.
	return r.fallback(ctx, day, provErr, false)
}

// lookupWithRetry calls the provider with bounded exponential backoff.
// ErrRateNotFound is permanent and never retried.
func (r *Resolver) lookupWithRetry(ctx context.Context, day time.Time) (decimal.Decimal, error) {
	var rate decimal.Decimal

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.cfg.InitialBackoff

	operation := func() error {
		var err error
		rate, err = r.provider.Lookup(ctx, day)
		if err == nil {
			return nil
		}
		if errors.Is(err, fx.ErrRateNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(r.cfg.MaxAttempts-1)), ctx))
	if err != nil {
		return decimal.Decimal{}, err
	}
	return rate, nil
}

// storeFetched persists a freshly fetched rate. A RateConflict means another
// resolver won the race; the loser observes the winner's value.
func (r *Resolver) storeFetched(ctx context.Context, day time.Time, rate decimal.Decimal) (Resolution, error) {
	fetched, err := fx.NewFetchedRate(day, rate)
	if err != nil {
		return Resolution{}, err
	}

	if err := r.cache.Put(ctx, fetched); err != nil {
		if !errors.Is(err, fx.ErrRateConflict) {
			return Resolution{}, err
		}
		winner, getErr := r.cache.Get(ctx, day)
		if getErr != nil {
			return Resolution{}, getErr
		}
		return resolutionFromRate(winner, false), nil
	}

	return resolutionFromRate(fetched, true), nil
}

// fallback resolves via the nearest earlier quoted rate inside the lookback
// window. When persistMarker is set, a fallback row is stored so the date
// resolves from cache afterwards.
func (r *Resolver) fallback(ctx context.Context, day time.Time, cause error, persistMarker bool) (Resolution, error) {
	prior, err := r.cache.NearestBefore(ctx, day, r.cfg.LookbackDays)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Resolution{}, fx.NewRateUnavailableError(day, cause)
		}
		return Resolution{}, err
	}

	if persistMarker {
		marker, merr := fx.NewFallbackRate(day, prior.Rate, prior.EffectiveDate)
		if merr == nil {
			if perr := r.cache.Put(ctx, marker); perr != nil && !errors.Is(perr, fx.ErrRateConflict) {
				r.logger.Warn("failed to persist fallback marker",
					zap.String("date", day.Format(time.DateOnly)),
					zap.Error(perr),
				)
			}
		}
	}

	return Resolution{
		Rate:     prior.Rate,
		RateDate: prior.EffectiveDate,
		Source:   fx.SourceFallback,
		Stale:    true,
	}, nil
}

func resolutionFromRate(rate *fx.ExchangeRate, fetchedNow bool) Resolution {
	return Resolution{
		Rate:       rate.Rate,
		RateDate:   rate.EffectiveDate,
		Source:     rate.Source,
		Stale:      rate.IsStale(),
		FetchedNow: fetchedNow,
	}
}
