package ledger

import (
	"fmt"
	"time"

	"github.com/estudio/backend/internal/domain/shared"
)

// PeriodLayout is the canonical year-month period identifier layout
const PeriodLayout = "2006-01"

// Period is a financial year-month period
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses a "YYYY-MM" period identifier
func ParsePeriod(id string) (Period, error) {
	t, err := time.Parse(PeriodLayout, id)
	if err != nil {
		return Period{}, shared.NewDomainError("INVALID_PERIOD", fmt.Sprintf("Invalid period %q, expected YYYY-MM", id))
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// Start returns the inclusive start of the period (UTC)
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the exclusive end of the period: the first instant of the
// following month (UTC)
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Contains reports whether t falls within [Start, End)
func (p Period) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(p.Start()) && t.Before(p.End())
}

// String returns the canonical "YYYY-MM" identifier
func (p Period) String() string {
	return p.Start().Format(PeriodLayout)
}
