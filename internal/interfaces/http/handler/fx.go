package handler

import (
	"context"
	"errors"
	"time"

	fxapp "github.com/estudio/backend/internal/application/fx"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// FXHandler handles exchange-rate HTTP requests
type FXHandler struct {
	BaseHandler
	resolver *fxapp.Resolver
	rates    *fxapp.RateService
	backfill *fxapp.BackfillJob
}

// NewFXHandler creates a new FXHandler
func NewFXHandler(resolver *fxapp.Resolver, rates *fxapp.RateService, backfill *fxapp.BackfillJob) *FXHandler {
	return &FXHandler{resolver: resolver, rates: rates, backfill: backfill}
}

// RegisterRoutes registers FX routes
func (h *FXHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/fx")
	{
		group.GET("/rates/:date", h.GetRate)
		group.GET("/rates/:date/history", h.GetRateHistory)
		group.POST("/rates", h.OverrideRate)
		group.POST("/backfill", h.RunBackfill)
	}
}

// GetRate resolves the exchange rate for a calendar date, fetching from the
// provider or falling back to a recent rate when necessary
func (h *FXHandler) GetRate(c *gin.Context) {
	date, err := time.Parse(time.DateOnly, c.Param("date"))
	if err != nil {
		h.BadRequest(c, "Date must be YYYY-MM-DD")
		return
	}

	resolution, err := h.resolver.Resolve(c.Request.Context(), date)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resolution)
}

// GetRateHistory returns every retained rate row for a date, oldest first
func (h *FXHandler) GetRateHistory(c *gin.Context) {
	date, err := time.Parse(time.DateOnly, c.Param("date"))
	if err != nil {
		h.BadRequest(c, "Date must be YYYY-MM-DD")
		return
	}

	history, err := h.rates.History(c.Request.Context(), date)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	entries := make([]rateHistoryEntry, len(history))
	for i, r := range history {
		entries[i] = rateHistoryEntry{
			Date:          r.RateDate.Format(time.DateOnly),
			Rate:          r.Rate,
			Source:        string(r.Source),
			EffectiveDate: r.EffectiveDate.Format(time.DateOnly),
			Revision:      r.Revision,
			RecordedAt:    r.CreatedAt,
		}
	}
	h.Success(c, entries)
}

type rateHistoryEntry struct {
	Date          string          `json:"date"`
	Rate          decimal.Decimal `json:"rate"`
	Source        string          `json:"source"`
	EffectiveDate string          `json:"effective_date"`
	Revision      int             `json:"revision"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

// overrideRateRequest is a manual rate override request
type overrideRateRequest struct {
	Date string          `json:"date" binding:"required,dateonly"`
	Rate decimal.Decimal `json:"rate" binding:"required"`
}

// OverrideRate records an audited manual rate override for a date
func (h *FXHandler) OverrideRate(c *gin.Context) {
	var req overrideRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	date, _ := time.Parse(time.DateOnly, req.Date)

	rate, err := h.rates.Override(c.Request.Context(), date, req.Rate)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, rateHistoryEntry{
		Date:          rate.RateDate.Format(time.DateOnly),
		Rate:          rate.Rate,
		Source:        string(rate.Source),
		EffectiveDate: rate.EffectiveDate.Format(time.DateOnly),
		Revision:      rate.Revision,
		RecordedAt:    rate.CreatedAt,
	})
}

// backfillRequest is a backfill run request
type backfillRequest struct {
	From string `json:"from" binding:"required,dateonly"`
	To   string `json:"to" binding:"required,dateonly"`
}

// backfillResponse wraps the report with an interrupted flag so a cancelled
// run still returns its partial progress
type backfillResponse struct {
	fxapp.BackfillReport
	Interrupted bool `json:"interrupted"`
}

// RunBackfill fills every missing rate in a date range
func (h *FXHandler) RunBackfill(c *gin.Context) {
	var req backfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	from, _ := time.Parse(time.DateOnly, req.From)
	to, _ := time.Parse(time.DateOnly, req.To)

	report, err := h.backfill.Run(c.Request.Context(), from, to)
	if err != nil {
		if errors.Is(err, fxapp.ErrBackfillInterrupted) || errors.Is(err, context.Canceled) {
			h.Success(c, backfillResponse{BackfillReport: report, Interrupted: true})
			return
		}
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, backfillResponse{BackfillReport: report})
}
