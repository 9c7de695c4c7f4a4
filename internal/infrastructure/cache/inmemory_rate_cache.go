package cache

import (
	"context"
	"sync"
	"time"

	"github.com/estudio/backend/internal/domain/fx"
)

// InMemoryRateCache is a read-through layer over a persistent fx.RateCache.
// Effective rates are memoized per date; writes pass through to the inner
// cache and invalidate the memoized entry, so a manual override is visible
// on the next read.
//
// Suitable for single-instance deployments and testing. State is not shared
// across process instances.
type InMemoryRateCache struct {
	inner fx.RateCache

	mu    sync.RWMutex
	rates map[time.Time]*fx.ExchangeRate
}

// NewInMemoryRateCache creates a new InMemoryRateCache over inner
func NewInMemoryRateCache(inner fx.RateCache) *InMemoryRateCache {
	return &InMemoryRateCache{
		inner: inner,
		rates: make(map[time.Time]*fx.ExchangeRate),
	}
}

// Get returns the effective rate for a date, memoizing hits
func (c *InMemoryRateCache) Get(ctx context.Context, date time.Time) (*fx.ExchangeRate, error) {
	date = fx.NormalizeDate(date)

	c.mu.RLock()
	cached, ok := c.rates[date]
	c.mu.RUnlock()
	if ok {
		copied := *cached
		return &copied, nil
	}

	rate, err := c.inner.Get(ctx, date)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	stored := *rate
	c.rates[date] = &stored
	c.mu.Unlock()
	return rate, nil
}

// Put delegates to the inner cache and invalidates the memoized entry for
// the date. Invalidation happens even when the write loses a race: the
// winner's row is then re-read from the inner cache.
func (c *InMemoryRateCache) Put(ctx context.Context, rate *fx.ExchangeRate) error {
	err := c.inner.Put(ctx, rate)

	c.mu.Lock()
	delete(c.rates, fx.NormalizeDate(rate.RateDate))
	c.mu.Unlock()

	return err
}

// History delegates to the inner cache
func (c *InMemoryRateCache) History(ctx context.Context, date time.Time) ([]fx.ExchangeRate, error) {
	return c.inner.History(ctx, date)
}

// NearestBefore delegates to the inner cache. Window scans always read
// persisted truth.
func (c *InMemoryRateCache) NearestBefore(ctx context.Context, date time.Time, lookbackDays int) (*fx.ExchangeRate, error) {
	return c.inner.NearestBefore(ctx, date, lookbackDays)
}

// MissingDates delegates to the inner cache
func (c *InMemoryRateCache) MissingDates(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	return c.inner.MissingDates(ctx, from, to)
}
