package fx

import (
	"errors"
	"fmt"
	"time"

	"github.com/estudio/backend/internal/domain/shared"
)

// ErrRateConflict is returned when a fetched rate already exists for a date.
// Fetched rates are single-writer-wins: losers must re-read the cached value.
var ErrRateConflict = shared.NewDomainError("RATE_CONFLICT", "A fetched rate already exists for this date")

// ErrRateNotFound is returned by a provider when no rate is quoted for the
// requested date (typically a non-trading day). It is permanent for that
// date and must not be retried.
var ErrRateNotFound = errors.New("no rate quoted for date")

// RateUnavailableError indicates no rate could be resolved for a date within
// the lookback window. Fatal to the requesting computation.
type RateUnavailableError struct {
	Date  time.Time
	Cause error
}

// Error implements the error interface
func (e *RateUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("no exchange rate available for %s: %v", e.Date.Format(time.DateOnly), e.Cause)
	}
	return fmt.Sprintf("no exchange rate available for %s", e.Date.Format(time.DateOnly))
}

// Unwrap returns the underlying cause
func (e *RateUnavailableError) Unwrap() error {
	return e.Cause
}

// NewRateUnavailableError creates a RateUnavailableError for a date
func NewRateUnavailableError(date time.Time, cause error) *RateUnavailableError {
	return &RateUnavailableError{Date: NormalizeDate(date), Cause: cause}
}

// ProviderError is a transient failure from the external rate provider.
// Callers retry with bounded backoff before escalating.
type ProviderError struct {
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("rate provider error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("rate provider error: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *ProviderError) Unwrap() error {
	return e.Err
}
