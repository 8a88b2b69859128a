package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound              = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists         = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput          = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict   = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInsufficientStock     = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrInvalidTransition     = NewDomainError("INVALID_TRANSITION", "Operation not allowed in current state")
	ErrInvalidSplitQuantity  = NewDomainError("INVALID_SPLIT_QUANTITY", "Split quantity must be positive and less than the source quantity")
	ErrScheduleOverflow      = NewDomainError("SCHEDULE_OVERFLOW", "Quantity cannot be exhausted within the allowed week range")
	ErrWouldViolateInvariant = NewDomainError("WOULD_VIOLATE_INVARIANT", "Mutation would break the on-hand/reserved relationship")
	ErrBusy                  = NewDomainError("BUSY", "Resource is locked by another operation, retry later")
)
