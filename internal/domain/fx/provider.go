package fx

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RateProvider is the external exchange-rate source. Implementations are
// untrusted network dependencies: they may be slow, rate limited, or
// transiently failing.
type RateProvider interface {
	// Lookup returns the ARS rate quoted for the given calendar date.
	// Returns ErrRateNotFound when the provider quotes no rate for the
	// date (non-trading day); any other failure is wrapped in a
	// *ProviderError and may be retried.
	Lookup(ctx context.Context, date time.Time) (decimal.Decimal, error)
}
