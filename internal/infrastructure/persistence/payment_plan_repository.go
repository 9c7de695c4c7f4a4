package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/estudio/backend/internal/domain/plan"
	"github.com/estudio/backend/internal/domain/shared"
	"github.com/estudio/backend/internal/domain/shared/valueobject"
	"github.com/estudio/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentPlanRepository implements plan.Repository using GORM
type GormPaymentPlanRepository struct {
	db *gorm.DB
}

// NewGormPaymentPlanRepository creates a new GormPaymentPlanRepository
func NewGormPaymentPlanRepository(db *gorm.DB) *GormPaymentPlanRepository {
	return &GormPaymentPlanRepository{db: db}
}

// FindByID finds a payment plan by its ID with installments ordered by index
func (r *GormPaymentPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*plan.PaymentPlan, error) {
	var model models.PaymentPlanModel
	if err := r.db.WithContext(ctx).
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("idx ASC")
		}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save persists the plan header and replaces its installment rows in one
// transaction, with optimistic locking on the aggregate version. A save from
// a stale load returns shared.ErrConcurrencyConflict and changes nothing.
func (r *GormPaymentPlanRepository) Save(ctx context.Context, p *plan.PaymentPlan) error {
	model := models.PaymentPlanModelFromDomain(p)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		installments := model.Installments
		model.Installments = nil

		var current models.PaymentPlanModel
		err := tx.Select("version").Where("id = ?", p.GetID()).First(&current).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(model).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			// Domain model already incremented the version; the row must
			// still hold the version this save was loaded from.
			expectedVersion := p.GetVersion() - 1
			if current.Version != expectedVersion {
				return shared.ErrConcurrencyConflict
			}

			result := tx.Model(model).
				Where("version = ?", expectedVersion).
				Updates(map[string]any{
					"authority_ref": model.AuthorityRef,
					"total_amount":  model.TotalAmount,
					"currency":      model.Currency,
					"status":        model.Status,
					"created_from":  model.CreatedFrom,
					"version":       model.Version,
					"updated_at":    model.UpdatedAt,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return shared.ErrConcurrencyConflict
			}
		}

		if err := tx.Where("plan_id = ?", model.ID).
			Delete(&models.PlanInstallmentModel{}).Error; err != nil {
			return err
		}
		if len(installments) == 0 {
			return nil
		}
		return tx.Create(&installments).Error
	})
}

// ListUpcoming returns one page of unpaid installments across all plans,
// keyset-paginated on (due_date, plan_id, idx) so callers can resume the
// sequence after interruption.
func (r *GormPaymentPlanRepository) ListUpcoming(ctx context.Context, asOf time.Time, cursor plan.ObligationCursor, limit int) ([]plan.Obligation, plan.ObligationCursor, error) {
	query := r.db.WithContext(ctx).
		Table("plan_installments AS pi").
		Select("pi.plan_id, pi.idx, pi.due_date, pi.amount, pp.authority_ref, pp.currency").
		Joins("JOIN payment_plans pp ON pp.id = pi.plan_id").
		Where("pi.status <> ?", plan.InstallmentStatusPaid)

	if !cursor.IsZero() {
		query = query.Where(
			"(pi.due_date, pi.plan_id, pi.idx) > (?, ?, ?)",
			cursor.DueDate, cursor.PlanID, cursor.Index,
		)
	}

	var rows []struct {
		PlanID       uuid.UUID
		Idx          int
		DueDate      time.Time
		Amount       decimal.Decimal
		AuthorityRef string
		Currency     valueobject.Currency
	}
	if err := query.
		Order("pi.due_date ASC, pi.plan_id ASC, pi.idx ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, plan.ObligationCursor{}, err
	}

	obligations := make([]plan.Obligation, len(rows))
	for i, row := range rows {
		obligations[i] = plan.Obligation{
			PlanID:       row.PlanID,
			AuthorityRef: row.AuthorityRef,
			Index:        row.Idx,
			DueDate:      row.DueDate,
			Amount:       row.Amount,
			Currency:     row.Currency,
			Overdue:      row.DueDate.Before(asOf),
		}
	}

	var next plan.ObligationCursor
	if len(obligations) == limit && limit > 0 {
		last := obligations[len(obligations)-1]
		next = plan.ObligationCursor{
			DueDate: last.DueDate,
			PlanID:  last.PlanID,
			Index:   last.Index,
		}
	}
	return obligations, next, nil
}
