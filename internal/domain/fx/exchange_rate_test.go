package fx

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	require.NoError(t, err)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			"strips time of day",
			time.Date(2025, 1, 15, 14, 30, 45, 123, time.UTC),
			time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			"converts to UTC before truncating",
			time.Date(2025, 1, 15, 22, 0, 0, 0, loc), // 01:00 UTC next day
			time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			"idempotent on a normalized date",
			time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDate(tt.in))
		})
	}
}

func TestNewFetchedRate(t *testing.T) {
	t.Run("creates a fetched rate for the normalized date", func(t *testing.T) {
		rate, err := NewFetchedRate(time.Date(2025, 1, 15, 18, 0, 0, 0, time.UTC), decimal.NewFromInt(1300))
		require.NoError(t, err)
		assert.Equal(t, SourceFetched, rate.Source)
		assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), rate.RateDate)
		assert.Equal(t, rate.RateDate, rate.EffectiveDate)
		assert.Zero(t, rate.Revision)
		require.NotNil(t, rate.FetchedAt)
		assert.False(t, rate.IsStale())
	})

	t.Run("rejects non-positive rates", func(t *testing.T) {
		_, err := NewFetchedRate(time.Now(), decimal.Zero)
		assert.Error(t, err)
		_, err = NewFetchedRate(time.Now(), decimal.NewFromInt(-1))
		assert.Error(t, err)
	})
}

func TestNewFallbackRate(t *testing.T) {
	saturday := time.Date(2025, 1, 18, 0, 0, 0, 0, time.UTC)
	friday := time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)

	rate, err := NewFallbackRate(saturday, decimal.NewFromInt(1290), friday)
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, rate.Source)
	assert.Equal(t, saturday, rate.RateDate)
	assert.Equal(t, friday, rate.EffectiveDate)
	assert.True(t, rate.IsStale())
}

func TestNewManualRate(t *testing.T) {
	rate, err := NewManualRate(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(1305))
	require.NoError(t, err)
	assert.Equal(t, SourceManual, rate.Source)
	assert.Equal(t, rate.RateDate, rate.EffectiveDate)
	assert.False(t, rate.IsStale())
}

func TestRateSourceIsValid(t *testing.T) {
	assert.True(t, SourceFetched.IsValid())
	assert.True(t, SourceFallback.IsValid())
	assert.True(t, SourceManual.IsValid())
	assert.False(t, RateSource("SCRAPED").IsValid())
}
