package fx

import (
	"context"
	"time"
)

// RateCache is the persisted date-to-rate mapping.
//
// Write semantics: fetched rows are immutable and single-writer-wins (a
// second fetched write for a date fails with ErrRateConflict); manual
// overrides append revisions; fallback markers are insert-if-absent.
type RateCache interface {
	// Get returns the effective rate for a date: the latest manual
	// revision if any, else the fetched rate, else a fallback marker.
	// Returns shared.ErrNotFound on a miss.
	Get(ctx context.Context, date time.Time) (*ExchangeRate, error)

	// Put persists a rate according to the write semantics above.
	Put(ctx context.Context, rate *ExchangeRate) error

	// History returns every retained row for a date, oldest first.
	History(ctx context.Context, date time.Time) ([]ExchangeRate, error)

	// NearestBefore returns the closest earlier quoted rate (fetched or
	// manual, not fallback markers) within lookbackDays calendar days.
	// Returns shared.ErrNotFound when the window contains none.
	NearestBefore(ctx context.Context, date time.Time, lookbackDays int) (*ExchangeRate, error)

	// MissingDates returns the calendar dates in [from, to] absent from
	// the cache, ascending. The scan is finite and restartable: rerunning
	// after a partial backfill returns only the remaining gaps.
	MissingDates(ctx context.Context, from, to time.Time) ([]time.Time, error)
}
