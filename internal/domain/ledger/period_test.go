package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	t.Run("parses a valid identifier", func(t *testing.T) {
		p, err := ParsePeriod("2025-03")
		require.NoError(t, err)
		assert.Equal(t, 2025, p.Year)
		assert.Equal(t, time.March, p.Month)
	})

	t.Run("rejects malformed identifiers", func(t *testing.T) {
		for _, id := range []string{"", "2025", "2025-13", "03-2025", "2025-3", "2025/03"} {
			_, err := ParsePeriod(id)
			assert.Error(t, err, "expected %q to be rejected", id)
		}
	})
}

func TestPeriodBounds(t *testing.T) {
	p, err := ParsePeriod("2025-01")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), p.Start())
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), p.End())

	t.Run("december rolls into the next year", func(t *testing.T) {
		dec, err := ParsePeriod("2024-12")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), dec.End())
	})
}

func TestPeriodContains(t *testing.T) {
	p, _ := ParsePeriod("2025-01")

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"first instant", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"mid month", time.Date(2025, 1, 15, 12, 30, 0, 0, time.UTC), true},
		{"last instant", time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC), true},
		{"exclusive end", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), false},
		{"before start", time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Contains(tt.t))
		})
	}
}

func TestPeriodString(t *testing.T) {
	p, _ := ParsePeriod("2025-07")
	assert.Equal(t, "2025-07", p.String())
}

func TestEntryStatusAggregatable(t *testing.T) {
	assert.True(t, StatusActive.Aggregatable())
	assert.False(t, StatusVoid.Aggregatable())
	assert.False(t, StatusPending.Aggregatable())
}
