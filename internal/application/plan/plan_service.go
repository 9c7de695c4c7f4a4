package plan

import (
	"context"
	"time"

	"github.com/estudio/backend/internal/domain/plan"
	"github.com/estudio/backend/internal/domain/shared"
	"github.com/estudio/backend/internal/domain/shared/valueobject"
	"github.com/estudio/backend/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreatePlanRequest is a manual plan creation request
type CreatePlanRequest struct {
	AuthorityRef string
	TotalAmount  decimal.Decimal
	Installments []plan.InstallmentSpec
	CreatedFrom  string
}

// PlanService manages payment plans and the upcoming-obligations view
type PlanService struct {
	repo   plan.Repository
	logger *zap.Logger
}

// NewPlanService creates a new PlanService
func NewPlanService(repo plan.Repository, logger *zap.Logger) *PlanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanService{repo: repo, logger: logger.Named("plan")}
}

// CreatePlan validates and persists a new payment plan. On validation
// failure nothing is persisted.
func (s *PlanService) CreatePlan(ctx context.Context, req CreatePlanRequest) (*plan.PaymentPlan, error) {
	p, err := plan.NewPaymentPlan(req.AuthorityRef, req.TotalAmount, req.Installments, req.CreatedFrom)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("payment plan created",
		zap.String("plan_id", p.GetID().String()),
		zap.String("authority", p.AuthorityRef),
		zap.Int("installments", len(p.Installments)),
	)
	return p, nil
}

// CreatePlanFromSummary seeds a plan from a period summary's net amount,
// split into count equal monthly installments starting at firstDueDate.
// Remainder centavos land on the earliest installments.
func (s *PlanService) CreatePlanFromSummary(ctx context.Context, summary *tax.PeriodSummary, authorityRef string, count int, firstDueDate time.Time) (*plan.PaymentPlan, error) {
	if summary == nil {
		return nil, shared.ErrInvalidInput
	}
	if !summary.NetAmount.IsPositive() {
		return nil, plan.NewValidationError("Summary net amount must be positive to seed a plan")
	}
	if count <= 0 {
		return nil, plan.NewValidationError("Installment count must be positive")
	}

	total := valueobject.NewMoneyARS(summary.NetAmount)
	parts, err := total.Allocate(count)
	if err != nil {
		return nil, plan.NewValidationError(err.Error())
	}

	specs := make([]plan.InstallmentSpec, count)
	for i, part := range parts {
		specs[i] = plan.InstallmentSpec{
			DueDate: firstDueDate.AddDate(0, i, 0),
			Amount:  part.Amount(),
		}
	}

	return s.CreatePlan(ctx, CreatePlanRequest{
		AuthorityRef: authorityRef,
		TotalAmount:  summary.NetAmount,
		Installments: specs,
		CreatedFrom:  summary.PeriodID,
	})
}

// GetPlan returns a plan by ID with its status refreshed as of now
func (s *PlanService) GetPlan(ctx context.Context, id uuid.UUID) (*plan.PaymentPlan, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.RefreshStatus(time.Now())
	return p, nil
}

// MarkInstallmentPaid records a payment for one installment and persists
// the recomputed plan status
func (s *PlanService) MarkInstallmentPaid(ctx context.Context, planID uuid.UUID, index int, paymentDate time.Time) (*plan.PaymentPlan, error) {
	p, err := s.repo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := p.MarkInstallmentPaid(index, paymentDate); err != nil {
		return nil, err
	}
	p.IncrementVersion()
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("installment paid",
		zap.String("plan_id", planID.String()),
		zap.Int("index", index),
		zap.String("plan_status", string(p.Status)),
	)
	return p, nil
}

// ListUpcomingObligations returns one page of unpaid installments across
// all plans ordered by due date, with a cursor to resume the sequence
func (s *PlanService) ListUpcomingObligations(ctx context.Context, asOf time.Time, cursor plan.ObligationCursor, limit int) ([]plan.Obligation, plan.ObligationCursor, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListUpcoming(ctx, asOf, cursor, limit)
}
