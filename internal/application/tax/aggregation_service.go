package tax

import (
	"context"
	"errors"
	"sort"
	"time"

	fxapp "github.com/estudio/backend/internal/application/fx"
	"github.com/estudio/backend/internal/domain/fx"
	"github.com/estudio/backend/internal/domain/ledger"
	"github.com/estudio/backend/internal/domain/shared/valueobject"
	"github.com/estudio/backend/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RateResolver resolves an exchange rate for a transaction date
type RateResolver interface {
	Resolve(ctx context.Context, date time.Time) (fxapp.Resolution, error)
}

// AggregationService computes deterministic period tax summaries from ledger
// entries, converting foreign-currency amounts at their transaction date.
type AggregationService struct {
	source   ledger.Source
	resolver RateResolver
	rules    tax.RuleProvider
	logger   *zap.Logger
}

// NewAggregationService creates a new AggregationService
func NewAggregationService(source ledger.Source, resolver RateResolver, rules tax.RuleProvider, logger *zap.Logger) *AggregationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AggregationService{
		source:   source,
		resolver: resolver,
		rules:    rules,
		logger:   logger.Named("tax.aggregation"),
	}
}

// Compute builds the tax summary for a period and optional scope.
//
// Pure over its inputs: an identical entry set and rate cache state yields
// an identical summary (GeneratedAt excluded). Any entry whose rate cannot
// be resolved aborts the whole computation with *tax.MissingRateError; a
// partial or zero-filled summary is never produced.
func (s *AggregationService) Compute(ctx context.Context, periodID string, scope *uuid.UUID) (*tax.PeriodSummary, error) {
	period, err := ledger.ParsePeriod(periodID)
	if err != nil {
		return nil, err
	}

	table, err := s.rules.Load(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.source.Query(ctx, period.Start(), period.End(), scope)
	if err != nil {
		return nil, err
	}

	// Deterministic accumulation order regardless of source ordering.
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].TransactionDate.Equal(entries[j].TransactionDate) {
			return entries[i].TransactionDate.Before(entries[j].TransactionDate)
		}
		return entries[i].ID.String() < entries[j].ID.String()
	})

	totals := map[tax.Category]decimal.Decimal{}
	for _, c := range tax.Categories() {
		totals[c] = decimal.Zero
	}
	provisional := false
	sourceIDs := make([]uuid.UUID, 0, len(entries))

	for _, entry := range entries {
		if !entry.Status.Aggregatable() {
			continue
		}

		amount := entry.Amount
		if entry.Currency != valueobject.ReportingCurrency {
			res, rerr := s.resolver.Resolve(ctx, entry.TransactionDate)
			if rerr != nil {
				var unavailable *fx.RateUnavailableError
				if errors.As(rerr, &unavailable) {
					return nil, &tax.MissingRateError{
						EntryID: entry.ID,
						Date:    fx.NormalizeDate(entry.TransactionDate),
						Cause:   rerr,
					}
				}
				return nil, rerr
			}
			amount = entry.Amount.Mul(res.Rate)
			if res.Stale {
				provisional = true
			}
		}

		rule, cerr := table.Classify(entry)
		if cerr != nil {
			return nil, cerr
		}
		for _, contribution := range rule.Contributions {
			totals[contribution.Category] = totals[contribution.Category].
				Add(amount.Mul(contribution.Factor))
		}
		sourceIDs = append(sourceIDs, entry.ID)
	}

	// Single rounding step, at category level, to the reporting
	// currency's minor unit.
	ivaDebito := totals[tax.CategoryIVADebito].Round(valueobject.MinorUnitPlaces)
	ivaCredito := totals[tax.CategoryIVACredito].Round(valueobject.MinorUnitPlaces)
	iibb := totals[tax.CategoryIIBB].Round(valueobject.MinorUnitPlaces)
	retenciones := totals[tax.CategoryRetenciones].Round(valueobject.MinorUnitPlaces)

	// Net tax position payable: retenciones are credits withheld at source.
	net := ivaDebito.Sub(ivaCredito).Add(iibb).Sub(retenciones)

	summary := &tax.PeriodSummary{
		PeriodID:       period.String(),
		Scope:          scope,
		IVADebito:      ivaDebito,
		IVACredito:     ivaCredito,
		IIBB:           iibb,
		Retenciones:    retenciones,
		NetAmount:      net,
		Currency:       valueobject.ReportingCurrency,
		Provisional:    provisional,
		GeneratedAt:    time.Now(),
		SourceEntryIDs: sourceIDs,
	}

	s.logger.Debug("period summary computed",
		zap.String("period", summary.PeriodID),
		zap.Int("entries", len(sourceIDs)),
		zap.Bool("provisional", provisional),
	)
	return summary, nil
}
