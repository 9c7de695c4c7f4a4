package plan

import (
	"fmt"
	"time"

	"github.com/estudio/backend/internal/domain/shared"
	"github.com/estudio/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InstallmentStatus represents the payment status of one installment
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "PENDING"
	InstallmentStatusPaid    InstallmentStatus = "PAID"
	InstallmentStatusOverdue InstallmentStatus = "OVERDUE"
)

// IsValid checks if the status is a valid InstallmentStatus
func (s InstallmentStatus) IsValid() bool {
	switch s {
	case InstallmentStatusPending, InstallmentStatusPaid, InstallmentStatusOverdue:
		return true
	}
	return false
}

// Status represents the overall state of a payment plan
type Status string

const (
	// StatusCurrent means no unpaid installment is past due
	StatusCurrent Status = "CURRENT"
	// StatusOverdue means at least one unpaid installment is past due
	StatusOverdue Status = "OVERDUE"
	// StatusCompleted means every installment is paid
	StatusCompleted Status = "COMPLETED"
)

// Installment is one scheduled payment of a plan
type Installment struct {
	Index   int
	DueDate time.Time
	Amount  decimal.Decimal
	Status  InstallmentStatus
	PaidAt  *time.Time
}

// IsPaid returns true if the installment has been paid
func (i Installment) IsPaid() bool {
	return i.Status == InstallmentStatusPaid
}

// IsPastDue reports whether an unpaid installment's due date has passed
func (i Installment) IsPastDue(asOf time.Time) bool {
	return !i.IsPaid() && i.DueDate.Before(asOf)
}

// SumTolerance is the maximum allowed difference between the installment sum
// and the plan total. The residual inside the tolerance is folded into the
// final installment so the stored plan sums exactly.
var SumTolerance = decimal.NewFromInt(1) // 1 ARS

// PaymentPlan is an installment plan for settling a tax obligation with an
// authority (e.g. an AFIP plan de pago). Installments are ordered ascending
// by due date, non-overlapping, and sum exactly to TotalAmount.
type PaymentPlan struct {
	shared.BaseAggregateRoot
	AuthorityRef string
	TotalAmount  decimal.Decimal
	Currency     valueobject.Currency
	Installments []Installment
	Status       Status
	// CreatedFrom records provenance: a period identifier when seeded
	// from a summary, empty when entered manually.
	CreatedFrom string
}

// InstallmentSpec is the caller-supplied schedule line for plan creation
type InstallmentSpec struct {
	DueDate time.Time
	Amount  decimal.Decimal
}

// NewPaymentPlan creates a validated payment plan. On any violation it
// returns a PLAN_VALIDATION error and no plan.
func NewPaymentPlan(authorityRef string, totalAmount decimal.Decimal, specs []InstallmentSpec, createdFrom string) (*PaymentPlan, error) {
	if authorityRef == "" {
		return nil, NewValidationError("Authority reference cannot be empty")
	}
	if !totalAmount.IsPositive() {
		return nil, NewValidationError("Total amount must be positive")
	}
	if len(specs) == 0 {
		return nil, NewValidationError("A plan requires at least one installment")
	}

	sum := decimal.Zero
	for i, spec := range specs {
		if !spec.Amount.IsPositive() {
			return nil, NewValidationError(fmt.Sprintf("Installment %d amount must be positive", i))
		}
		if i > 0 && !specs[i-1].DueDate.Before(spec.DueDate) {
			return nil, NewValidationError(fmt.Sprintf("Installment %d due date must be after installment %d", i, i-1))
		}
		sum = sum.Add(spec.Amount)
	}

	residual := totalAmount.Sub(sum)
	if residual.Abs().GreaterThan(SumTolerance) {
		return nil, NewValidationError(fmt.Sprintf(
			"Installments sum to %s but plan total is %s (tolerance %s)",
			sum, totalAmount, SumTolerance))
	}

	installments := make([]Installment, len(specs))
	for i, spec := range specs {
		installments[i] = Installment{
			Index:   i,
			DueDate: spec.DueDate,
			Amount:  spec.Amount,
			Status:  InstallmentStatusPending,
		}
	}
	// The rounding residual is assigned to the final installment.
	last := len(installments) - 1
	installments[last].Amount = installments[last].Amount.Add(residual)
	if !installments[last].Amount.IsPositive() {
		return nil, NewValidationError("Final installment is not positive after absorbing the rounding residual")
	}

	return &PaymentPlan{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AuthorityRef:      authorityRef,
		TotalAmount:       totalAmount,
		Currency:          valueobject.ReportingCurrency,
		Installments:      installments,
		Status:            StatusCurrent,
		CreatedFrom:       createdFrom,
	}, nil
}

// MarkInstallmentPaid transitions one installment to paid and recomputes the
// plan status as of the payment date
func (p *PaymentPlan) MarkInstallmentPaid(index int, paymentDate time.Time) error {
	if index < 0 || index >= len(p.Installments) {
		return shared.NewDomainError("INVALID_INSTALLMENT", fmt.Sprintf("Plan has no installment %d", index))
	}
	inst := &p.Installments[index]
	if inst.IsPaid() {
		return shared.NewDomainError("ALREADY_PAID", fmt.Sprintf("Installment %d is already paid", index))
	}

	inst.Status = InstallmentStatusPaid
	inst.PaidAt = &paymentDate
	p.UpdatedAt = time.Now()
	p.RefreshStatus(paymentDate)
	return nil
}

// RefreshStatus recomputes installment and plan status as of the given time.
// Unpaid past-due installments are marked overdue; the plan is completed
// when every installment is paid, overdue when any unpaid installment is
// past due, current otherwise.
func (p *PaymentPlan) RefreshStatus(asOf time.Time) {
	allPaid := true
	anyPastDue := false
	for i := range p.Installments {
		inst := &p.Installments[i]
		if inst.IsPaid() {
			continue
		}
		allPaid = false
		if inst.IsPastDue(asOf) {
			inst.Status = InstallmentStatusOverdue
			anyPastDue = true
		} else {
			inst.Status = InstallmentStatusPending
		}
	}

	switch {
	case allPaid:
		p.Status = StatusCompleted
	case anyPastDue:
		p.Status = StatusOverdue
	default:
		p.Status = StatusCurrent
	}
}

// UnpaidAmount returns the total of unpaid installments
func (p *PaymentPlan) UnpaidAmount() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range p.Installments {
		if !inst.IsPaid() {
			total = total.Add(inst.Amount)
		}
	}
	return total
}

// NewValidationError creates a PLAN_VALIDATION domain error
func NewValidationError(message string) *shared.DomainError {
	return shared.NewDomainError("PLAN_VALIDATION", message)
}
