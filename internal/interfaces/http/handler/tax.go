package handler

import (
	taxapp "github.com/estudio/backend/internal/application/tax"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TaxHandler handles period tax summary HTTP requests
type TaxHandler struct {
	BaseHandler
	aggregation *taxapp.AggregationService
}

// NewTaxHandler creates a new TaxHandler
func NewTaxHandler(aggregation *taxapp.AggregationService) *TaxHandler {
	return &TaxHandler{aggregation: aggregation}
}

// RegisterRoutes registers tax routes
func (h *TaxHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/tax")
	{
		group.GET("/summaries/:period", h.GetSummary)
	}
}

// GetSummary computes the tax summary for a YYYY-MM period, optionally
// restricted to one project or entity via ?scope=<uuid>
func (h *TaxHandler) GetSummary(c *gin.Context) {
	var scope *uuid.UUID
	if raw := c.Query("scope"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Scope must be a UUID")
			return
		}
		scope = &id
	}

	summary, err := h.aggregation.Compute(c.Request.Context(), c.Param("period"), scope)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, summary)
}
