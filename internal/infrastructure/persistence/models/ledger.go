package models

import (
	"time"

	"github.com/estudio/backend/internal/domain/ledger"
	"github.com/estudio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntryModel is the persistence model for ledger entries. The rows are
// written by the expense, contract and payroll modules; the tax core only
// reads them.
type LedgerEntryModel struct {
	ID              uuid.UUID            `gorm:"type:uuid;primary_key"`
	Kind            ledger.EntryKind     `gorm:"type:varchar(10);not null;index"`
	Amount          decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Currency        valueobject.Currency `gorm:"type:varchar(3);not null"`
	TransactionDate time.Time            `gorm:"type:date;not null;index:idx_ledger_entries_txn_date"`
	TaxCode         string               `gorm:"type:varchar(50);not null"`
	ScopeRef        *uuid.UUID           `gorm:"type:uuid;index"`
	Status          ledger.EntryStatus   `gorm:"type:varchar(10);not null;default:'ACTIVE'"`
	CreatedAt       time.Time            `gorm:"not null"`
	UpdatedAt       time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain Entry
func (m *LedgerEntryModel) ToDomain() ledger.Entry {
	return ledger.Entry{
		ID:              m.ID,
		Kind:            m.Kind,
		Amount:          m.Amount,
		Currency:        m.Currency,
		TransactionDate: m.TransactionDate,
		TaxCode:         m.TaxCode,
		ScopeRef:        m.ScopeRef,
		Status:          m.Status,
	}
}

// TaxRuleModel is the persistence model for jurisdiction classification
// rules. The table is seeded by migration and maintained by accountants.
type TaxRuleModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	TaxCode   string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_tax_rules_code_kind_cat,priority:1"`
	Kind      string          `gorm:"type:varchar(10);not null;default:'';uniqueIndex:idx_tax_rules_code_kind_cat,priority:2"`
	Category  string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_tax_rules_code_kind_cat,priority:3"`
	Factor    decimal.Decimal `gorm:"type:decimal(10,6);not null"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TaxRuleModel) TableName() string {
	return "tax_rules"
}
