package fx

import (
	"context"
	"testing"
	"time"

	"github.com/estudio/backend/internal/domain/fx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateServiceOverride(t *testing.T) {
	cache := newFakeRateCache()
	svc := NewRateService(cache, nil)
	day := date(2025, 1, 15)

	fetched, err := fx.NewFetchedRate(day, decimal.NewFromInt(1300))
	require.NoError(t, err)
	cache.putDirect(fetched)

	first, err := svc.Override(context.Background(), day, decimal.NewFromInt(1305))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Revision)

	second, err := svc.Override(context.Background(), day, decimal.NewFromInt(1307))
	require.NoError(t, err)
	assert.Equal(t, 2, second.Revision)

	t.Run("the override becomes the effective rate", func(t *testing.T) {
		got, err := cache.Get(context.Background(), day)
		require.NoError(t, err)
		assert.Equal(t, fx.SourceManual, got.Source)
		assert.True(t, got.Rate.Equal(decimal.NewFromInt(1307)))
	})

	t.Run("previous values stay in the history", func(t *testing.T) {
		history, err := svc.History(context.Background(), day)
		require.NoError(t, err)
		assert.Len(t, history, 3)
	})

	t.Run("rejects a non-positive value", func(t *testing.T) {
		_, err := svc.Override(context.Background(), day, decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("normalizes the date", func(t *testing.T) {
		noon := time.Date(2025, 2, 3, 12, 0, 0, 0, time.UTC)
		manual, err := svc.Override(context.Background(), noon, decimal.NewFromInt(1310))
		require.NoError(t, err)
		assert.Equal(t, date(2025, 2, 3), manual.RateDate)
	})
}
