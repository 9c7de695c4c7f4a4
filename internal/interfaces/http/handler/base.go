package handler

import (
	"errors"
	"net/http"

	"github.com/estudio/backend/internal/domain/fx"
	"github.com/estudio/backend/internal/domain/shared"
	"github.com/estudio/backend/internal/domain/tax"
	"github.com/estudio/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithCursor sends a success response with a resume cursor
func (h *BaseHandler) SuccessWithCursor(c *gin.Context, data any, nextCursor string, count int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithCursor(data, nextCursor, count))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleDomainError maps a domain error onto the HTTP response.
// Unknown errors surface as an opaque 500; the original message stays in the
// server log only.
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Error(c, dto.GetHTTPStatus(domainErr.Code), domainErr.Code, domainErr.Message)
		return
	}

	var rateUnavailable *fx.RateUnavailableError
	if errors.As(err, &rateUnavailable) {
		h.Error(c, http.StatusFailedDependency, "RATE_UNAVAILABLE", rateUnavailable.Error())
		return
	}

	var missingRate *tax.MissingRateError
	if errors.As(err, &missingRate) {
		h.Error(c, http.StatusFailedDependency, "MISSING_RATE", missingRate.Error())
		return
	}

	h.InternalError(c, "An internal error occurred")
}
