package fx

import (
	"time"

	"github.com/estudio/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RateSource indicates how a cached exchange rate was obtained
type RateSource string

const (
	// SourceFetched is a rate obtained from the external provider.
	// At most one fetched rate may exist per date and it is immutable.
	SourceFetched RateSource = "FETCHED"
	// SourceFallback is a marker for a non-trading day, carrying forward
	// the nearest earlier rate.
	SourceFallback RateSource = "FALLBACK"
	// SourceManual is an audited accountant override. Overrides are
	// appended as revisions, never overwritten.
	SourceManual RateSource = "MANUAL"
)

// IsValid checks if the source is a valid RateSource
func (s RateSource) IsValid() bool {
	switch s {
	case SourceFetched, SourceFallback, SourceManual:
		return true
	}
	return false
}

// String returns the string representation of RateSource
func (s RateSource) String() string {
	return string(s)
}

// ExchangeRate is a cached ARS-per-unit exchange rate for a calendar date.
// Rows are append-only: fetched rates are immutable, manual corrections are
// retained as revisions, fallback markers record carry-forward resolution
// for non-trading days.
type ExchangeRate struct {
	shared.BaseEntity
	RateDate time.Time // calendar date (UTC midnight) the rate applies to
	Rate     decimal.Decimal
	Source   RateSource
	// EffectiveDate is the date the rate value was actually quoted for.
	// Equal to RateDate except for fallback markers.
	EffectiveDate time.Time
	// Revision distinguishes successive manual overrides for one date.
	// Zero for fetched and fallback rows.
	Revision  int
	FetchedAt *time.Time
}

// NormalizeDate truncates a timestamp to its UTC calendar date
func NormalizeDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewFetchedRate creates a provider-fetched rate for a date
func NewFetchedRate(date time.Time, rate decimal.Decimal) (*ExchangeRate, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	now := time.Now()
	date = NormalizeDate(date)
	return &ExchangeRate{
		BaseEntity:    shared.NewBaseEntity(),
		RateDate:      date,
		Rate:          rate,
		Source:        SourceFetched,
		EffectiveDate: date,
		FetchedAt:     &now,
	}, nil
}

// NewFallbackRate creates a non-trading-day marker carrying forward the rate
// quoted on effectiveDate
func NewFallbackRate(date time.Time, rate decimal.Decimal, effectiveDate time.Time) (*ExchangeRate, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	return &ExchangeRate{
		BaseEntity:    shared.NewBaseEntity(),
		RateDate:      NormalizeDate(date),
		Rate:          rate,
		Source:        SourceFallback,
		EffectiveDate: NormalizeDate(effectiveDate),
	}, nil
}

// NewManualRate creates an accountant override for a date. The revision is
// assigned by the cache on insert.
func NewManualRate(date time.Time, rate decimal.Decimal) (*ExchangeRate, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	date = NormalizeDate(date)
	return &ExchangeRate{
		BaseEntity:    shared.NewBaseEntity(),
		RateDate:      date,
		Rate:          rate,
		Source:        SourceManual,
		EffectiveDate: date,
	}, nil
}

// IsStale returns true if the rate is a carry-forward marker rather than a
// rate quoted for its own date
func (r *ExchangeRate) IsStale() bool {
	return r.Source == SourceFallback
}

func validateRate(rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return shared.NewDomainError("INVALID_RATE", "Exchange rate must be positive")
	}
	return nil
}
