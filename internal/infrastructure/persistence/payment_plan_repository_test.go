package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/estudio/backend/internal/domain/plan"
	"github.com/estudio/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlan(t *testing.T, authority string, first time.Time, amounts ...string) *plan.PaymentPlan {
	t.Helper()
	specs := make([]plan.InstallmentSpec, len(amounts))
	total := decimal.Zero
	for i, a := range amounts {
		amount := decimal.RequireFromString(a)
		specs[i] = plan.InstallmentSpec{DueDate: first.AddDate(0, i, 0), Amount: amount}
		total = total.Add(amount)
	}
	p, err := plan.NewPaymentPlan(authority, total, specs, "2025-01")
	require.NoError(t, err)
	return p
}

func TestGormPaymentPlanRepositorySaveFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormPaymentPlanRepository(db)
	ctx := context.Background()
	first := utcDate(2025, 3, 10)

	t.Run("round trips a plan with ordered installments", func(t *testing.T) {
		p := newTestPlan(t, "AFIP-PLAN-001", first, "100.50", "100.50", "99.00")
		require.NoError(t, repo.Save(ctx, p))

		got, err := repo.FindByID(ctx, p.GetID())
		require.NoError(t, err)

		assert.Equal(t, p.GetID(), got.GetID())
		assert.Equal(t, "AFIP-PLAN-001", got.AuthorityRef)
		assert.Equal(t, plan.StatusCurrent, got.Status)
		assert.Equal(t, "2025-01", got.CreatedFrom)
		assert.True(t, got.TotalAmount.Equal(p.TotalAmount))

		require.Len(t, got.Installments, 3)
		for i, inst := range got.Installments {
			assert.Equal(t, i, inst.Index)
			assert.Equal(t, first.AddDate(0, i, 0), inst.DueDate)
		}
	})

	t.Run("unknown plan is not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormPaymentPlanRepositorySaveReplacesInstallments(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormPaymentPlanRepository(db)
	ctx := context.Background()
	first := utcDate(2025, 3, 10)

	p := newTestPlan(t, "AFIP-PLAN-002", first, "100", "100")
	require.NoError(t, repo.Save(ctx, p))

	require.NoError(t, p.MarkInstallmentPaid(0, first))
	p.IncrementVersion()
	require.NoError(t, repo.Save(ctx, p))

	got, err := repo.FindByID(ctx, p.GetID())
	require.NoError(t, err)

	assert.Equal(t, p.GetVersion(), got.GetVersion())
	require.Len(t, got.Installments, 2)
	assert.Equal(t, plan.InstallmentStatusPaid, got.Installments[0].Status)
	require.NotNil(t, got.Installments[0].PaidAt)
	assert.Equal(t, plan.InstallmentStatusPending, got.Installments[1].Status)

	t.Run("no duplicate rows after a resave", func(t *testing.T) {
		var count int64
		require.NoError(t, db.Table("plan_installments").
			Where("plan_id = ?", p.GetID()).Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})
}

func TestGormPaymentPlanRepositorySaveOptimisticLock(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormPaymentPlanRepository(db)
	ctx := context.Background()
	first := utcDate(2025, 3, 10)

	p := newTestPlan(t, "AFIP-PLAN-003", first, "100", "100")
	require.NoError(t, repo.Save(ctx, p))

	// Two callers load the same plan and race to record a payment.
	stale1, err := repo.FindByID(ctx, p.GetID())
	require.NoError(t, err)
	stale2, err := repo.FindByID(ctx, p.GetID())
	require.NoError(t, err)

	require.NoError(t, stale1.MarkInstallmentPaid(0, first))
	stale1.IncrementVersion()
	require.NoError(t, repo.Save(ctx, stale1))

	require.NoError(t, stale2.MarkInstallmentPaid(1, first))
	stale2.IncrementVersion()
	err = repo.Save(ctx, stale2)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	t.Run("the first payment survives", func(t *testing.T) {
		got, err := repo.FindByID(ctx, p.GetID())
		require.NoError(t, err)
		assert.Equal(t, stale1.GetVersion(), got.GetVersion())
		assert.Equal(t, plan.InstallmentStatusPaid, got.Installments[0].Status)
		assert.Equal(t, plan.InstallmentStatusPending, got.Installments[1].Status)
	})

	t.Run("a rejected save leaves the installment rows intact", func(t *testing.T) {
		var count int64
		require.NoError(t, db.Table("plan_installments").
			Where("plan_id = ?", p.GetID()).Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})

	t.Run("retrying from a fresh load succeeds", func(t *testing.T) {
		fresh, err := repo.FindByID(ctx, p.GetID())
		require.NoError(t, err)
		require.NoError(t, fresh.MarkInstallmentPaid(1, first))
		fresh.IncrementVersion()
		require.NoError(t, repo.Save(ctx, fresh))

		got, err := repo.FindByID(ctx, p.GetID())
		require.NoError(t, err)
		assert.Equal(t, plan.StatusCompleted, got.Status)
	})
}

func TestGormPaymentPlanRepositoryListUpcoming(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormPaymentPlanRepository(db)
	ctx := context.Background()
	first := utcDate(2025, 3, 10)
	asOf := utcDate(2025, 3, 20)

	// Two plans with interleaved due dates; one installment already paid.
	a := newTestPlan(t, "AFIP-PLAN-A", first, "100", "100", "100")
	b := newTestPlan(t, "AFIP-PLAN-B", first.AddDate(0, 0, 5), "50", "50")
	require.NoError(t, a.MarkInstallmentPaid(0, first))
	require.NoError(t, repo.Save(ctx, a))
	require.NoError(t, repo.Save(ctx, b))

	t.Run("orders by due date and skips paid installments", func(t *testing.T) {
		obligations, _, err := repo.ListUpcoming(ctx, asOf, plan.ObligationCursor{}, 10)
		require.NoError(t, err)

		require.Len(t, obligations, 4)
		assert.Equal(t, first.AddDate(0, 0, 5), obligations[0].DueDate)
		assert.Equal(t, "AFIP-PLAN-B", obligations[0].AuthorityRef)
		for i := 1; i < len(obligations); i++ {
			assert.False(t, obligations[i].DueDate.Before(obligations[i-1].DueDate))
		}
		for _, o := range obligations {
			assert.False(t, o.PlanID == a.GetID() && o.Index == 0, "paid installment must be excluded")
		}
	})

	t.Run("flags overdue installments", func(t *testing.T) {
		obligations, _, err := repo.ListUpcoming(ctx, asOf, plan.ObligationCursor{}, 10)
		require.NoError(t, err)
		assert.True(t, obligations[0].Overdue, "due before asOf")
		assert.False(t, obligations[len(obligations)-1].Overdue)
	})

	t.Run("keyset cursor resumes without gaps or repeats", func(t *testing.T) {
		var all []plan.Obligation
		cursor := plan.ObligationCursor{}
		for {
			page, next, err := repo.ListUpcoming(ctx, asOf, cursor, 2)
			require.NoError(t, err)
			all = append(all, page...)
			if next.IsZero() || len(page) == 0 {
				break
			}
			cursor = next
		}

		require.Len(t, all, 4)
		seen := make(map[string]bool)
		for _, o := range all {
			key := o.PlanID.String() + "/" + o.DueDate.Format(time.DateOnly)
			assert.False(t, seen[key], "obligation %s paged twice", key)
			seen[key] = true
		}
	})
}

func TestGormPaymentPlanRepositoryListUpcomingEmpty(t *testing.T) {
	repo := NewGormPaymentPlanRepository(newTestDB(t))

	obligations, cursor, err := repo.ListUpcoming(context.Background(), utcDate(2025, 1, 1), plan.ObligationCursor{}, 10)
	require.NoError(t, err)
	assert.Empty(t, obligations)
	assert.True(t, cursor.IsZero())
}
