package persistence

import (
	"context"
	"time"

	"github.com/estudio/backend/internal/domain/ledger"
	"github.com/estudio/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLedgerSource implements ledger.Source over the shared ledger_entries
// table. Read-only: entry rows are owned by the expense, contract and payroll
// modules.
type GormLedgerSource struct {
	db *gorm.DB
}

// NewGormLedgerSource creates a new GormLedgerSource
func NewGormLedgerSource(db *gorm.DB) *GormLedgerSource {
	return &GormLedgerSource{db: db}
}

// Query returns entries with a transaction date in [from, to), optionally
// restricted to a scope
func (s *GormLedgerSource) Query(ctx context.Context, from, to time.Time, scope *uuid.UUID) ([]ledger.Entry, error) {
	query := s.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Where("transaction_date >= ? AND transaction_date < ?", from, to)
	if scope != nil {
		query = query.Where("scope_ref = ?", *scope)
	}

	var entryModels []models.LedgerEntryModel
	if err := query.Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]ledger.Entry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = model.ToDomain()
	}
	return entries, nil
}
