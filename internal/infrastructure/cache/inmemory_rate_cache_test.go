package cache

import (
	"context"
	"testing"
	"time"

	"github.com/estudio/backend/internal/domain/fx"
	"github.com/estudio/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRateCache is a minimal fx.RateCache recording how often each
// method is hit.
type countingRateCache struct {
	rates map[time.Time]*fx.ExchangeRate
	gets  int
	puts  int
}

func newCountingRateCache() *countingRateCache {
	return &countingRateCache{rates: make(map[time.Time]*fx.ExchangeRate)}
}

func (c *countingRateCache) Get(_ context.Context, date time.Time) (*fx.ExchangeRate, error) {
	c.gets++
	rate, ok := c.rates[fx.NormalizeDate(date)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *rate
	return &copied, nil
}

func (c *countingRateCache) Put(_ context.Context, rate *fx.ExchangeRate) error {
	c.puts++
	copied := *rate
	c.rates[fx.NormalizeDate(rate.RateDate)] = &copied
	return nil
}

func (c *countingRateCache) History(context.Context, time.Time) ([]fx.ExchangeRate, error) {
	return nil, nil
}

func (c *countingRateCache) NearestBefore(context.Context, time.Time, int) (*fx.ExchangeRate, error) {
	return nil, shared.ErrNotFound
}

func (c *countingRateCache) MissingDates(context.Context, time.Time, time.Time) ([]time.Time, error) {
	return nil, nil
}

func TestInMemoryRateCacheMemoizesGet(t *testing.T) {
	inner := newCountingRateCache()
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	fetched, err := fx.NewFetchedRate(day, decimal.NewFromInt(1300))
	require.NoError(t, err)
	require.NoError(t, inner.Put(context.Background(), fetched))

	c := NewInMemoryRateCache(inner)

	first, err := c.Get(context.Background(), day)
	require.NoError(t, err)
	second, err := c.Get(context.Background(), day)
	require.NoError(t, err)

	assert.True(t, first.Rate.Equal(second.Rate))
	assert.Equal(t, 1, inner.gets, "the second read must be served from memory")

	t.Run("misses are not memoized", func(t *testing.T) {
		_, err := c.Get(context.Background(), day.AddDate(0, 0, 1))
		assert.ErrorIs(t, err, shared.ErrNotFound)
		_, err = c.Get(context.Background(), day.AddDate(0, 0, 1))
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Equal(t, 3, inner.gets)
	})
}

func TestInMemoryRateCachePutInvalidates(t *testing.T) {
	inner := newCountingRateCache()
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	fetched, err := fx.NewFetchedRate(day, decimal.NewFromInt(1300))
	require.NoError(t, err)
	require.NoError(t, inner.Put(context.Background(), fetched))

	c := NewInMemoryRateCache(inner)
	_, err = c.Get(context.Background(), day)
	require.NoError(t, err)

	override, err := fx.NewManualRate(day, decimal.NewFromInt(1305))
	require.NoError(t, err)
	require.NoError(t, c.Put(context.Background(), override))

	got, err := c.Get(context.Background(), day)
	require.NoError(t, err)
	assert.True(t, got.Rate.Equal(decimal.NewFromInt(1305)), "an override must be visible on the next read")
	assert.Equal(t, 2, inner.puts)
}

func TestInMemoryRateCacheReturnsCopies(t *testing.T) {
	inner := newCountingRateCache()
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	fetched, err := fx.NewFetchedRate(day, decimal.NewFromInt(1300))
	require.NoError(t, err)
	require.NoError(t, inner.Put(context.Background(), fetched))

	c := NewInMemoryRateCache(inner)
	first, err := c.Get(context.Background(), day)
	require.NoError(t, err)
	first.Rate = decimal.NewFromInt(9999)

	second, err := c.Get(context.Background(), day)
	require.NoError(t, err)
	assert.True(t, second.Rate.Equal(decimal.NewFromInt(1300)), "callers must not be able to mutate the memoized entry")
}
