package ledger

import (
	"context"
	"time"

	"github.com/estudio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryKind identifies which external module owns a ledger entry
type EntryKind string

const (
	KindExpense EntryKind = "EXPENSE"
	KindIncome  EntryKind = "INCOME"
	KindPayroll EntryKind = "PAYROLL"
)

// IsValid checks if the kind is a valid EntryKind
func (k EntryKind) IsValid() bool {
	switch k {
	case KindExpense, KindIncome, KindPayroll:
		return true
	}
	return false
}

// String returns the string representation of EntryKind
func (k EntryKind) String() string {
	return string(k)
}

// EntryStatus represents the lifecycle status of a ledger entry
type EntryStatus string

const (
	StatusActive  EntryStatus = "ACTIVE"
	StatusVoid    EntryStatus = "VOID"
	StatusPending EntryStatus = "PENDING"
)

// IsValid checks if the status is a valid EntryStatus
func (s EntryStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusVoid, StatusPending:
		return true
	}
	return false
}

// Aggregatable returns true if entries in this status contribute to period
// summaries. Void and pending entries never do.
func (s EntryStatus) Aggregatable() bool {
	return s == StatusActive
}

// Entry is a read-only projection of a ledger record owned by the expense,
// contract/income, or payroll module. The tax core never mutates entries.
type Entry struct {
	ID              uuid.UUID
	Kind            EntryKind
	Amount          decimal.Decimal
	Currency        valueobject.Currency
	TransactionDate time.Time
	// TaxCode keys into the jurisdiction rule table (e.g. IVA condition,
	// withholding applicability).
	TaxCode  string
	ScopeRef *uuid.UUID // owning project or entity, nil for firm-wide
	Status   EntryStatus
}

// InScope reports whether the entry belongs to the given scope.
// A nil scope matches every entry.
func (e Entry) InScope(scope *uuid.UUID) bool {
	if scope == nil {
		return true
	}
	return e.ScopeRef != nil && *e.ScopeRef == *scope
}

// Source exposes ledger entries from the external owner modules.
// Query returns entries with a transaction date in [from, to), matching
// scope, in no guaranteed order. Callers are expected to supply a
// consistent snapshot; the core does not add cross-entity transactions.
type Source interface {
	Query(ctx context.Context, from, to time.Time, scope *uuid.UUID) ([]Entry, error)
}
