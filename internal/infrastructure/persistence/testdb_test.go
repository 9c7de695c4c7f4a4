package persistence

import (
	"path/filepath"
	"testing"

	"github.com/estudio/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a throwaway sqlite database with the full schema,
// including the partial unique indexes the rate write semantics rely on.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.ExchangeRateModel{},
		&models.LedgerEntryModel{},
		&models.TaxRuleModel{},
		&models.PaymentPlanModel{},
		&models.PlanInstallmentModel{},
	))

	for _, stmt := range []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_exchange_rates_fetched_once
			ON exchange_rates (rate_date) WHERE source = 'FETCHED'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_exchange_rates_fallback_once
			ON exchange_rates (rate_date) WHERE source = 'FALLBACK'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_exchange_rates_manual_revision
			ON exchange_rates (rate_date, revision) WHERE source = 'MANUAL'`,
	} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}
