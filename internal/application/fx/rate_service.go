package fx

import (
	"context"
	"time"

	"github.com/estudio/backend/internal/domain/fx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RateService exposes rate administration operations: audited manual
// overrides and per-date history.
type RateService struct {
	cache  fx.RateCache
	logger *zap.Logger
}

// NewRateService creates a new RateService
func NewRateService(cache fx.RateCache, logger *zap.Logger) *RateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateService{cache: cache, logger: logger.Named("fx.rates")}
}

// Override appends a manual rate revision for a date. Previous values,
// fetched or manual, are retained with full history.
func (s *RateService) Override(ctx context.Context, date time.Time, value decimal.Decimal) (*fx.ExchangeRate, error) {
	manual, err := fx.NewManualRate(date, value)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Put(ctx, manual); err != nil {
		return nil, err
	}
	s.logger.Info("manual rate override recorded",
		zap.String("date", manual.RateDate.Format(time.DateOnly)),
		zap.String("rate", value.String()),
	)
	return manual, nil
}

// History returns every retained rate row for a date, oldest first
func (s *RateService) History(ctx context.Context, date time.Time) ([]fx.ExchangeRate, error) {
	return s.cache.History(ctx, date)
}
