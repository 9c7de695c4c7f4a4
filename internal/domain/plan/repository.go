package plan

import (
	"context"
	"time"

	"github.com/estudio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Obligation is one unpaid installment in the upcoming-obligations view
type Obligation struct {
	PlanID       uuid.UUID            `json:"plan_id"`
	AuthorityRef string               `json:"authority_ref"`
	Index        int                  `json:"index"`
	DueDate      time.Time            `json:"due_date"`
	Amount       decimal.Decimal      `json:"amount"`
	Currency     valueobject.Currency `json:"currency"`
	Overdue      bool                 `json:"overdue"`
}

// ObligationCursor is a keyset cursor into the obligations sequence, making
// the listing restartable. The zero value starts from the beginning.
type ObligationCursor struct {
	DueDate time.Time
	PlanID  uuid.UUID
	Index   int
}

// IsZero reports whether the cursor is the start of the sequence
func (c ObligationCursor) IsZero() bool {
	return c.DueDate.IsZero()
}

// Repository persists payment plans
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentPlan, error)
	Save(ctx context.Context, p *PaymentPlan) error

	// ListUpcoming returns up to limit unpaid installments across all
	// plans ordered by (due date, plan, index) ascending, strictly after
	// the cursor. The returned cursor resumes the sequence.
	ListUpcoming(ctx context.Context, asOf time.Time, cursor ObligationCursor, limit int) ([]Obligation, ObligationCursor, error)
}
