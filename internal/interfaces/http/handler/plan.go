package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	planapp "github.com/estudio/backend/internal/application/plan"
	taxapp "github.com/estudio/backend/internal/application/tax"
	"github.com/estudio/backend/internal/domain/plan"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanHandler handles payment plan HTTP requests
type PlanHandler struct {
	BaseHandler
	plans       *planapp.PlanService
	aggregation *taxapp.AggregationService
}

// NewPlanHandler creates a new PlanHandler
func NewPlanHandler(plans *planapp.PlanService, aggregation *taxapp.AggregationService) *PlanHandler {
	return &PlanHandler{plans: plans, aggregation: aggregation}
}

// RegisterRoutes registers plan routes
func (h *PlanHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/plans")
	{
		group.POST("", h.CreatePlan)
		group.POST("/from-period", h.CreatePlanFromPeriod)
		group.GET("/obligations", h.ListObligations)
		group.GET("/:id", h.GetPlan)
		group.POST("/:id/installments/:index/pay", h.PayInstallment)
	}
}

type installmentSpecRequest struct {
	DueDate string          `json:"due_date" binding:"required,dateonly"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
}

type createPlanRequest struct {
	AuthorityRef string                   `json:"authority_ref" binding:"required"`
	TotalAmount  decimal.Decimal          `json:"total_amount" binding:"required"`
	Installments []installmentSpecRequest `json:"installments" binding:"required,min=1,dive"`
	CreatedFrom  string                   `json:"created_from"`
}

// CreatePlan creates a payment plan from an explicit installment schedule
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	specs := make([]plan.InstallmentSpec, len(req.Installments))
	for i, spec := range req.Installments {
		due, _ := time.Parse(time.DateOnly, spec.DueDate)
		specs[i] = plan.InstallmentSpec{DueDate: due, Amount: spec.Amount}
	}

	created, err := h.plans.CreatePlan(c.Request.Context(), planapp.CreatePlanRequest{
		AuthorityRef: req.AuthorityRef,
		TotalAmount:  req.TotalAmount,
		Installments: specs,
		CreatedFrom:  req.CreatedFrom,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, created)
}

type createPlanFromPeriodRequest struct {
	Period       string `json:"period" binding:"required,period"`
	Scope        string `json:"scope" binding:"omitempty,uuid"`
	AuthorityRef string `json:"authority_ref" binding:"required"`
	Count        int    `json:"count" binding:"required,min=1"`
	FirstDueDate string `json:"first_due_date" binding:"required,dateonly"`
}

// CreatePlanFromPeriod computes the period summary and seeds a plan from its
// net amount, split into equal monthly installments
func (h *PlanHandler) CreatePlanFromPeriod(c *gin.Context) {
	var req createPlanFromPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var scope *uuid.UUID
	if req.Scope != "" {
		id, _ := uuid.Parse(req.Scope)
		scope = &id
	}

	summary, err := h.aggregation.Compute(c.Request.Context(), req.Period, scope)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	firstDue, _ := time.Parse(time.DateOnly, req.FirstDueDate)
	created, err := h.plans.CreatePlanFromSummary(c.Request.Context(), summary, req.AuthorityRef, req.Count, firstDue)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, created)
}

// GetPlan returns a plan with its status refreshed as of now
func (h *PlanHandler) GetPlan(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Plan ID must be a UUID")
		return
	}

	p, err := h.plans.GetPlan(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, p)
}

type payInstallmentRequest struct {
	PaymentDate string `json:"payment_date" binding:"omitempty,dateonly"`
}

// PayInstallment records a payment for one installment
func (h *PlanHandler) PayInstallment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Plan ID must be a UUID")
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.BadRequest(c, "Installment index must be an integer")
		return
	}

	var req payInstallmentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}
	paymentDate := time.Now()
	if req.PaymentDate != "" {
		paymentDate, _ = time.Parse(time.DateOnly, req.PaymentDate)
	}

	p, err := h.plans.MarkInstallmentPaid(c.Request.Context(), id, index, paymentDate)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, p)
}

// ListObligations returns one page of unpaid installments across all plans,
// ordered by due date. The cursor in the response meta resumes the sequence.
func (h *PlanHandler) ListObligations(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			h.BadRequest(c, "Limit must be an integer between 1 and 500")
			return
		}
		limit = parsed
	}

	cursor, err := parseObligationCursor(c.Query("cursor"))
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	obligations, next, err := h.plans.ListUpcomingObligations(c.Request.Context(), time.Now(), cursor, limit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithCursor(c, obligations, formatObligationCursor(next), len(obligations))
}

// parseObligationCursor decodes a "date,plan-uuid,index" cursor.
// An empty string is the start of the sequence.
func parseObligationCursor(raw string) (plan.ObligationCursor, error) {
	if raw == "" {
		return plan.ObligationCursor{}, nil
	}
	parts := strings.SplitN(raw, ",", 3)
	if len(parts) != 3 {
		return plan.ObligationCursor{}, fmt.Errorf("cursor must be date,plan-id,index")
	}
	due, err := time.Parse(time.DateOnly, parts[0])
	if err != nil {
		return plan.ObligationCursor{}, fmt.Errorf("cursor date must be YYYY-MM-DD")
	}
	planID, err := uuid.Parse(parts[1])
	if err != nil {
		return plan.ObligationCursor{}, fmt.Errorf("cursor plan ID must be a UUID")
	}
	index, err := strconv.Atoi(parts[2])
	if err != nil {
		return plan.ObligationCursor{}, fmt.Errorf("cursor index must be an integer")
	}
	return plan.ObligationCursor{DueDate: due, PlanID: planID, Index: index}, nil
}

func formatObligationCursor(c plan.ObligationCursor) string {
	if c.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s,%s,%d", c.DueDate.Format(time.DateOnly), c.PlanID, c.Index)
}
