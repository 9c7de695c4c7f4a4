package dto

import "net/http"

// General error codes
const (
	ErrCodeInternal   = "INTERNAL"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeValidation = "VALIDATION"
	ErrCodeNotFound   = "NOT_FOUND"
)

// ErrorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Rate unavailability maps to 424 Failed Dependency: the request itself was
// well-formed, an upstream dependency could not satisfy it.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,
	ErrCodeNotFound:   http.StatusNotFound,

	// Input shape errors -> 400 Bad Request
	"INVALID_INPUT":  http.StatusBadRequest,
	"INVALID_PERIOD": http.StatusBadRequest,
	"INVALID_RANGE":  http.StatusBadRequest,
	"INVALID_RATE":   http.StatusBadRequest,

	// Resource errors
	"ALREADY_EXISTS":       http.StatusConflict,
	"RATE_CONFLICT":        http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"INVALID_INSTALLMENT":  http.StatusNotFound,

	// Business rule violations -> 422 Unprocessable Entity
	"PLAN_VALIDATION":  http.StatusUnprocessableEntity,
	"UNKNOWN_TAX_CODE": http.StatusUnprocessableEntity,
	"ALREADY_PAID":     http.StatusUnprocessableEntity,
	"INVALID_STATE":    http.StatusUnprocessableEntity,

	// Upstream rate dependency failures -> 424 Failed Dependency
	"RATE_UNAVAILABLE": http.StatusFailedDependency,
	"MISSING_RATE":     http.StatusFailedDependency,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not mapped.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
