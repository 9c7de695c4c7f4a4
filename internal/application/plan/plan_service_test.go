package plan

import (
	"context"
	"testing"
	"time"

	"github.com/estudio/backend/internal/domain/plan"
	"github.com/estudio/backend/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPlanRepository struct {
	mock.Mock
}

func (m *mockPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*plan.PaymentPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.PaymentPlan), args.Error(1)
}

func (m *mockPlanRepository) Save(ctx context.Context, p *plan.PaymentPlan) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockPlanRepository) ListUpcoming(ctx context.Context, asOf time.Time, cursor plan.ObligationCursor, limit int) ([]plan.Obligation, plan.ObligationCursor, error) {
	args := m.Called(ctx, asOf, cursor, limit)
	return args.Get(0).([]plan.Obligation), args.Get(1).(plan.ObligationCursor), args.Error(2)
}

func monthlySpecs(first time.Time, amounts ...string) []plan.InstallmentSpec {
	specs := make([]plan.InstallmentSpec, len(amounts))
	for i, a := range amounts {
		specs[i] = plan.InstallmentSpec{
			DueDate: first.AddDate(0, i, 0),
			Amount:  decimal.RequireFromString(a),
		}
	}
	return specs
}

func arsSummary(period, net string) *tax.PeriodSummary {
	return &tax.PeriodSummary{
		PeriodID:  period,
		NetAmount: decimal.RequireFromString(net),
		Currency:  "ARS",
	}
}

func TestCreatePlan(t *testing.T) {
	first := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("persists a valid plan", func(t *testing.T) {
		repo := new(mockPlanRepository)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*plan.PaymentPlan")).Return(nil)

		svc := NewPlanService(repo, nil)
		p, err := svc.CreatePlan(context.Background(), CreatePlanRequest{
			AuthorityRef: "AFIP-PLAN-2025-001",
			TotalAmount:  decimal.NewFromInt(300),
			Installments: monthlySpecs(first, "100", "100", "100"),
		})
		require.NoError(t, err)
		assert.Equal(t, plan.StatusCurrent, p.Status)
		repo.AssertExpectations(t)
	})

	t.Run("persists nothing on validation failure", func(t *testing.T) {
		repo := new(mockPlanRepository)
		svc := NewPlanService(repo, nil)

		_, err := svc.CreatePlan(context.Background(), CreatePlanRequest{
			AuthorityRef: "AFIP-PLAN-2025-001",
			TotalAmount:  decimal.NewFromInt(300),
			Installments: monthlySpecs(first, "100", "100"),
		})
		assert.Error(t, err)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestCreatePlanFromSummary(t *testing.T) {
	first := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("splits the net amount into monthly installments", func(t *testing.T) {
		repo := new(mockPlanRepository)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)

		svc := NewPlanService(repo, nil)
		p, err := svc.CreatePlanFromSummary(context.Background(), arsSummary("2025-01", "100.00"), "AFIP-PLAN", 3, first)
		require.NoError(t, err)

		require.Len(t, p.Installments, 3)
		assert.Equal(t, "33.34", p.Installments[0].Amount.StringFixed(2))
		assert.Equal(t, "33.33", p.Installments[1].Amount.StringFixed(2))
		assert.Equal(t, "33.33", p.Installments[2].Amount.StringFixed(2))
		assert.Equal(t, "2025-01", p.CreatedFrom)

		for i, inst := range p.Installments {
			assert.Equal(t, first.AddDate(0, i, 0), inst.DueDate)
		}
	})

	t.Run("rejects a non-positive net amount", func(t *testing.T) {
		svc := NewPlanService(new(mockPlanRepository), nil)
		_, err := svc.CreatePlanFromSummary(context.Background(), arsSummary("2025-01", "-5000"), "AFIP-PLAN", 3, first)
		assert.Error(t, err)
		_, err = svc.CreatePlanFromSummary(context.Background(), arsSummary("2025-01", "0"), "AFIP-PLAN", 3, first)
		assert.Error(t, err)
	})

	t.Run("rejects a nil summary and a non-positive count", func(t *testing.T) {
		svc := NewPlanService(new(mockPlanRepository), nil)
		_, err := svc.CreatePlanFromSummary(context.Background(), nil, "AFIP-PLAN", 3, first)
		assert.Error(t, err)
		_, err = svc.CreatePlanFromSummary(context.Background(), arsSummary("2025-01", "100"), "AFIP-PLAN", 0, first)
		assert.Error(t, err)
	})
}

func TestMarkInstallmentPaid(t *testing.T) {
	first := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("pays and persists with a bumped version", func(t *testing.T) {
		p, err := plan.NewPaymentPlan("AFIP-PLAN", decimal.NewFromInt(200), monthlySpecs(first, "100", "100"), "")
		require.NoError(t, err)
		versionBefore := p.GetVersion()

		repo := new(mockPlanRepository)
		repo.On("FindByID", mock.Anything, p.GetID()).Return(p, nil)
		repo.On("Save", mock.Anything, p).Return(nil)

		svc := NewPlanService(repo, nil)
		updated, err := svc.MarkInstallmentPaid(context.Background(), p.GetID(), 0, first)
		require.NoError(t, err)

		assert.Equal(t, plan.InstallmentStatusPaid, updated.Installments[0].Status)
		assert.Equal(t, versionBefore+1, updated.GetVersion())
		repo.AssertExpectations(t)
	})

	t.Run("does not persist a rejected payment", func(t *testing.T) {
		p, err := plan.NewPaymentPlan("AFIP-PLAN", decimal.NewFromInt(100), monthlySpecs(first, "100"), "")
		require.NoError(t, err)
		require.NoError(t, p.MarkInstallmentPaid(0, first))

		repo := new(mockPlanRepository)
		repo.On("FindByID", mock.Anything, p.GetID()).Return(p, nil)

		svc := NewPlanService(repo, nil)
		_, err = svc.MarkInstallmentPaid(context.Background(), p.GetID(), 0, first)
		assert.Error(t, err)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestListUpcomingObligations(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	obligations := []plan.Obligation{{PlanID: uuid.New(), Index: 0, DueDate: now.AddDate(0, 0, 10)}}
	next := plan.ObligationCursor{DueDate: now.AddDate(0, 0, 10), PlanID: obligations[0].PlanID}

	t.Run("applies the default page size", func(t *testing.T) {
		repo := new(mockPlanRepository)
		repo.On("ListUpcoming", mock.Anything, now, plan.ObligationCursor{}, 50).
			Return(obligations, next, nil)

		svc := NewPlanService(repo, nil)
		got, cursor, err := svc.ListUpcomingObligations(context.Background(), now, plan.ObligationCursor{}, 0)
		require.NoError(t, err)
		assert.Equal(t, obligations, got)
		assert.Equal(t, next, cursor)
		repo.AssertExpectations(t)
	})

	t.Run("passes an explicit limit through", func(t *testing.T) {
		repo := new(mockPlanRepository)
		repo.On("ListUpcoming", mock.Anything, now, plan.ObligationCursor{}, 10).
			Return([]plan.Obligation{}, plan.ObligationCursor{}, nil)

		svc := NewPlanService(repo, nil)
		_, _, err := svc.ListUpcomingObligations(context.Background(), now, plan.ObligationCursor{}, 10)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}
