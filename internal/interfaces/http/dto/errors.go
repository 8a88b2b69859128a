package dto

import "net/http"

// General error codes
const (
	ErrCodeInternal   = "INTERNAL"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeValidation = "VALIDATION"
)

// ErrorCodeHTTPStatus maps domain error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,

	// Resource errors
	"NOT_FOUND":      http.StatusNotFound,
	"ALREADY_EXISTS": http.StatusConflict,
	"INVALID_INPUT":  http.StatusBadRequest,

	// Stock and scheduling conflicts
	"INSUFFICIENT_STOCK":      http.StatusConflict,
	"CONCURRENCY_CONFLICT":    http.StatusConflict,
	"OPTIMISTIC_LOCK_FAILED":  http.StatusConflict,
	"HAS_ACTIVE_RESERVATIONS": http.StatusConflict,
	"IDEMPOTENCY_KEY_REUSED":  http.StatusConflict,
	"BUSY":                    http.StatusServiceUnavailable,

	// Business rule violations
	"INVALID_TRANSITION":      http.StatusUnprocessableEntity,
	"INVALID_SPLIT_QUANTITY":  http.StatusUnprocessableEntity,
	"SCHEDULE_OVERFLOW":       http.StatusUnprocessableEntity,
	"WOULD_VIOLATE_INVARIANT": http.StatusUnprocessableEntity,
	"QUANTITY_EXCEEDS_ENTRY":  http.StatusUnprocessableEntity,
	"UNRESERVED_QUANTITY":     http.StatusUnprocessableEntity,
	"LOT_TRACKED_PRODUCT":     http.StatusUnprocessableEntity,

	// Malformed or rejected input
	"INVALID_QUOTE_ID":        http.StatusBadRequest,
	"INVALID_PRODUCT_ID":      http.StatusBadRequest,
	"INVALID_QUANTITY":        http.StatusBadRequest,
	"INVALID_LOT_CODE":        http.StatusBadRequest,
	"INVALID_MOVEMENT_TYPE":   http.StatusBadRequest,
	"INVALID_MOVEMENT_SOURCE": http.StatusBadRequest,
	"MISSING_LOT_INFO":        http.StatusBadRequest,
	"PIN_MISMATCH":            http.StatusBadRequest,
	"MISSING_PINS":            http.StatusBadRequest,
	"UNKNOWN_POLICY":          http.StatusBadRequest,
	"INVALID_WEEK_RANGE":      http.StatusBadRequest,
	"EMPTY_QUOTE":             http.StatusBadRequest,
	"INVALID_QUOTE_STATE":     http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes default to 422, the error came from the domain layer
// and represents a rejected operation rather than a server fault.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusUnprocessableEntity
}
