package models

import (
	"time"

	"github.com/estudio/backend/internal/domain/fx"
	"github.com/shopspring/decimal"
)

// ExchangeRateModel is the persistence model for cached exchange rates.
//
// Immutability of fetched rates is enforced by a partial unique index on
// (rate_date) WHERE source = 'FETCHED'; a second fetched insert for the same
// date conflicts and affects zero rows. Fallback markers carry an analogous
// partial index so concurrent carry-forward writes collapse to one row.
// Manual revisions are distinguished by (rate_date, revision).
type ExchangeRateModel struct {
	BaseModel
	RateDate      time.Time       `gorm:"type:date;not null;index:idx_exchange_rates_date"`
	Rate          decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	Source        fx.RateSource   `gorm:"type:varchar(10);not null"`
	EffectiveDate time.Time       `gorm:"type:date;not null"`
	Revision      int             `gorm:"not null;default:0"`
	FetchedAt     *time.Time
}

// TableName returns the table name for GORM
func (ExchangeRateModel) TableName() string {
	return "exchange_rates"
}

// ToDomain converts the persistence model to a domain ExchangeRate
func (m *ExchangeRateModel) ToDomain() *fx.ExchangeRate {
	return &fx.ExchangeRate{
		BaseEntity:    m.BaseModel.ToDomain(),
		RateDate:      fx.NormalizeDate(m.RateDate),
		Rate:          m.Rate,
		Source:        m.Source,
		EffectiveDate: fx.NormalizeDate(m.EffectiveDate),
		Revision:      m.Revision,
		FetchedAt:     m.FetchedAt,
	}
}

// FromDomain populates the persistence model from a domain ExchangeRate
func (m *ExchangeRateModel) FromDomain(r *fx.ExchangeRate) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.RateDate = r.RateDate
	m.Rate = r.Rate
	m.Source = r.Source
	m.EffectiveDate = r.EffectiveDate
	m.Revision = r.Revision
	m.FetchedAt = r.FetchedAt
}

// ExchangeRateModelFromDomain creates a new persistence model from a domain ExchangeRate
func ExchangeRateModelFromDomain(r *fx.ExchangeRate) *ExchangeRateModel {
	m := &ExchangeRateModel{}
	m.FromDomain(r)
	return m
}
