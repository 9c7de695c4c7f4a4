package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/estudio/backend/internal/domain/fx"
	"github.com/estudio/backend/internal/domain/shared"
	"github.com/estudio/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sourcePriority orders rows so the effective rate for a date sorts first:
// the latest manual revision, then the fetched rate, then a fallback marker.
const sourcePriority = "CASE source WHEN 'MANUAL' THEN 0 WHEN 'FETCHED' THEN 1 ELSE 2 END, revision DESC"

// GormRateRepository implements fx.RateCache using GORM
type GormRateRepository struct {
	db *gorm.DB
}

// NewGormRateRepository creates a new GormRateRepository
func NewGormRateRepository(db *gorm.DB) *GormRateRepository {
	return &GormRateRepository{db: db}
}

// Get returns the effective rate for a date
func (r *GormRateRepository) Get(ctx context.Context, date time.Time) (*fx.ExchangeRate, error) {
	var model models.ExchangeRateModel
	if err := r.db.WithContext(ctx).
		Where("rate_date = ?", fx.NormalizeDate(date)).
		Order(sourcePriority).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Put persists a rate. Fetched rows are single-writer-wins: losing a race to
// another fetched write for the same date returns fx.ErrRateConflict.
// Fallback markers are insert-if-absent and idempotent. Manual overrides are
// appended with the next revision number for their date.
func (r *GormRateRepository) Put(ctx context.Context, rate *fx.ExchangeRate) error {
	switch rate.Source {
	case fx.SourceFetched:
		return r.insertImmutable(ctx, rate, true)
	case fx.SourceFallback:
		return r.insertImmutable(ctx, rate, false)
	case fx.SourceManual:
		return r.appendManual(ctx, rate)
	default:
		return shared.NewDomainError("INVALID_RATE_SOURCE",
			fmt.Sprintf("Unknown rate source %q", rate.Source))
	}
}

// insertImmutable inserts relying on the partial unique index per source.
// A conflicting concurrent insert affects zero rows.
func (r *GormRateRepository) insertImmutable(ctx context.Context, rate *fx.ExchangeRate, conflictIsError bool) error {
	model := models.ExchangeRateModelFromDomain(rate)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 && conflictIsError {
		return fx.ErrRateConflict
	}
	return nil
}

// appendManual assigns the next revision for the date and inserts. The
// transaction serializes concurrent overrides for one date.
func (r *GormRateRepository) appendManual(ctx context.Context, rate *fx.ExchangeRate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxRevision int
		if err := tx.Model(&models.ExchangeRateModel{}).
			Where("rate_date = ? AND source = ?", rate.RateDate, fx.SourceManual).
			Select("COALESCE(MAX(revision), 0)").
			Scan(&maxRevision).Error; err != nil {
			return err
		}
		rate.Revision = maxRevision + 1

		model := models.ExchangeRateModelFromDomain(rate)
		return tx.Create(model).Error
	})
}

// History returns every retained row for a date, oldest first
func (r *GormRateRepository) History(ctx context.Context, date time.Time) ([]fx.ExchangeRate, error) {
	var rateModels []models.ExchangeRateModel
	if err := r.db.WithContext(ctx).
		Where("rate_date = ?", fx.NormalizeDate(date)).
		Order("created_at ASC, revision ASC").
		Find(&rateModels).Error; err != nil {
		return nil, err
	}
	rates := make([]fx.ExchangeRate, len(rateModels))
	for i, model := range rateModels {
		rates[i] = *model.ToDomain()
	}
	return rates, nil
}

// NearestBefore returns the closest earlier quoted rate within the lookback
// window. Fallback markers never qualify: a marker's value was not quoted for
// its own date.
func (r *GormRateRepository) NearestBefore(ctx context.Context, date time.Time, lookbackDays int) (*fx.ExchangeRate, error) {
	date = fx.NormalizeDate(date)
	floor := date.AddDate(0, 0, -lookbackDays)

	var model models.ExchangeRateModel
	if err := r.db.WithContext(ctx).
		Where("rate_date < ? AND rate_date >= ? AND source IN ?",
			date, floor, []fx.RateSource{fx.SourceFetched, fx.SourceManual}).
		Order("rate_date DESC, " + sourcePriority).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// MissingDates returns the calendar dates in [from, to] with no cached row,
// ascending. The gap diff runs in Go over the distinct cached dates, keeping
// the query a single bounded index scan.
func (r *GormRateRepository) MissingDates(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	from = fx.NormalizeDate(from)
	to = fx.NormalizeDate(to)

	var cached []time.Time
	if err := r.db.WithContext(ctx).
		Model(&models.ExchangeRateModel{}).
		Where("rate_date >= ? AND rate_date <= ?", from, to).
		Distinct("rate_date").
		Order("rate_date ASC").
		Pluck("rate_date", &cached).Error; err != nil {
		return nil, err
	}

	have := make(map[time.Time]struct{}, len(cached))
	for _, d := range cached {
		have[fx.NormalizeDate(d)] = struct{}{}
	}

	var missing []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if _, ok := have[d]; !ok {
			missing = append(missing, d)
		}
	}
	return missing, nil
}
