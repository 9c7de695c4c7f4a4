package tax

import (
	"fmt"
	"slices"
	"time"

	"github.com/estudio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PeriodSummary is the computed tax position for one year-month period and
// scope, in the reporting currency.
//
// A summary is a cache, not authoritative state: it is a pure function of
// the contributing ledger entries and the rate cache state, and must be
// recomputed whenever either changes. All computed fields are deterministic;
// GeneratedAt is emission metadata and excluded from Equal.
type PeriodSummary struct {
	PeriodID       string
	Scope          *uuid.UUID
	IVADebito      decimal.Decimal
	IVACredito     decimal.Decimal
	IIBB           decimal.Decimal
	Retenciones    decimal.Decimal
	NetAmount      decimal.Decimal
	Currency       valueobject.Currency
	Provisional    bool // true when any contributing rate was a fallback
	GeneratedAt    time.Time
	SourceEntryIDs []uuid.UUID
}

// Equal reports whether two summaries are identical in every computed field.
// GeneratedAt is ignored.
func (s *PeriodSummary) Equal(other *PeriodSummary) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.PeriodID != other.PeriodID ||
		s.Currency != other.Currency ||
		s.Provisional != other.Provisional {
		return false
	}
	if (s.Scope == nil) != (other.Scope == nil) {
		return false
	}
	if s.Scope != nil && *s.Scope != *other.Scope {
		return false
	}
	if !s.IVADebito.Equal(other.IVADebito) ||
		!s.IVACredito.Equal(other.IVACredito) ||
		!s.IIBB.Equal(other.IIBB) ||
		!s.Retenciones.Equal(other.Retenciones) ||
		!s.NetAmount.Equal(other.NetAmount) {
		return false
	}
	return slices.Equal(s.SourceEntryIDs, other.SourceEntryIDs)
}

// MissingRateError aborts a period computation when an entry's transaction
// date has no resolvable exchange rate. No partial or zero-filled summary is
// ever produced in its place.
type MissingRateError struct {
	EntryID uuid.UUID
	Date    time.Time
	Cause   error
}

// Error implements the error interface
func (e *MissingRateError) Error() string {
	return fmt.Sprintf("cannot aggregate entry %s: no exchange rate for %s", e.EntryID, e.Date.Format(time.DateOnly))
}

// Unwrap returns the underlying cause
func (e *MissingRateError) Unwrap() error {
	return e.Cause
}
