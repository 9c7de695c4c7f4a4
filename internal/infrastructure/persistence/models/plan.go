package models

import (
	"time"

	"github.com/estudio/backend/internal/domain/plan"
	"github.com/estudio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentPlanModel is the persistence model for the PaymentPlan aggregate root
type PaymentPlanModel struct {
	AggregateModel
	AuthorityRef string                 `gorm:"type:varchar(100);not null;index"`
	TotalAmount  decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	Currency     valueobject.Currency   `gorm:"type:varchar(3);not null"`
	Status       plan.Status            `gorm:"type:varchar(10);not null;default:'CURRENT';index"`
	CreatedFrom  string                 `gorm:"type:varchar(20)"`
	Installments []PlanInstallmentModel `gorm:"foreignKey:PlanID;references:ID"`
}

// TableName returns the table name for GORM
func (PaymentPlanModel) TableName() string {
	return "payment_plans"
}

// PlanInstallmentModel is one scheduled payment row of a plan
type PlanInstallmentModel struct {
	PlanID  uuid.UUID              `gorm:"type:uuid;primary_key"`
	Index   int                    `gorm:"column:idx;primary_key;autoIncrement:false"`
	DueDate time.Time              `gorm:"type:date;not null;index:idx_plan_installments_due"`
	Amount  decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	Status  plan.InstallmentStatus `gorm:"type:varchar(10);not null;default:'PENDING'"`
	PaidAt  *time.Time
}

// TableName returns the table name for GORM
func (PlanInstallmentModel) TableName() string {
	return "plan_installments"
}

// ToDomain converts the persistence model to a domain PaymentPlan.
// Installments are expected to be loaded ordered by idx.
func (m *PaymentPlanModel) ToDomain() *plan.PaymentPlan {
	p := &plan.PaymentPlan{
		AuthorityRef: m.AuthorityRef,
		TotalAmount:  m.TotalAmount,
		Currency:     m.Currency,
		Status:       m.Status,
		CreatedFrom:  m.CreatedFrom,
		Installments: make([]plan.Installment, len(m.Installments)),
	}
	m.PopulateAggregateRoot(&p.BaseAggregateRoot)
	for i, inst := range m.Installments {
		p.Installments[i] = plan.Installment{
			Index:   inst.Index,
			DueDate: inst.DueDate,
			Amount:  inst.Amount,
			Status:  inst.Status,
			PaidAt:  inst.PaidAt,
		}
	}
	return p
}

// FromDomain populates the persistence model from a domain PaymentPlan
func (m *PaymentPlanModel) FromDomain(p *plan.PaymentPlan) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.AuthorityRef = p.AuthorityRef
	m.TotalAmount = p.TotalAmount
	m.Currency = p.Currency
	m.Status = p.Status
	m.CreatedFrom = p.CreatedFrom
	m.Installments = make([]PlanInstallmentModel, len(p.Installments))
	for i, inst := range p.Installments {
		m.Installments[i] = PlanInstallmentModel{
			PlanID:  p.GetID(),
			Index:   inst.Index,
			DueDate: inst.DueDate,
			Amount:  inst.Amount,
			Status:  inst.Status,
			PaidAt:  inst.PaidAt,
		}
	}
}

// PaymentPlanModelFromDomain creates a new persistence model from a domain PaymentPlan
func PaymentPlanModelFromDomain(p *plan.PaymentPlan) *PaymentPlanModel {
	m := &PaymentPlanModel{}
	m.FromDomain(p)
	return m
}
