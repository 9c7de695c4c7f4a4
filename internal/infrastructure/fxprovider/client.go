// Package fxprovider implements the external exchange-rate provider client.
package fxprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/estudio/backend/internal/domain/fx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config holds provider client configuration
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client fetches daily USD/ARS quotes from the external provider over HTTP.
// It implements fx.RateProvider.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new provider client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("fxprovider"),
	}
}

// quoteResponse is the provider's wire format for a daily quote
type quoteResponse struct {
	Date string `json:"date"`
	Rate string `json:"rate"`
}

// Lookup fetches the quote for a calendar date. A 404 from the provider means
// no quote exists for the date (non-trading day) and maps to
// fx.ErrRateNotFound; any other failure maps to *fx.ProviderError.
func (c *Client) Lookup(ctx context.Context, date time.Time) (decimal.Decimal, error) {
	day := fx.NormalizeDate(date).Format(time.DateOnly)
	endpoint, err := url.JoinPath(c.baseURL, "rates", day)
	if err != nil {
		return decimal.Zero, &fx.ProviderError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, &fx.ProviderError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, &fx.ProviderError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return decimal.Zero, fx.ErrRateNotFound
	case resp.StatusCode != http.StatusOK:
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return decimal.Zero, &fx.ProviderError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("provider returned status %d for %s", resp.StatusCode, day),
		}
	}

	var quote quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return decimal.Zero, &fx.ProviderError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decoding provider response: %w", err),
		}
	}

	rate, err := decimal.NewFromString(quote.Rate)
	if err != nil {
		return decimal.Zero, &fx.ProviderError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("invalid rate %q in provider response: %w", quote.Rate, err),
		}
	}
	if !rate.IsPositive() {
		return decimal.Zero, &fx.ProviderError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("non-positive rate %q in provider response", quote.Rate),
		}
	}

	c.logger.Debug("rate fetched",
		zap.String("date", day),
		zap.String("rate", rate.String()),
	)
	return rate, nil
}
