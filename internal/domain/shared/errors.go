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

// NewValidationError creates a domain error for malformed or missing input.
// Validation errors are always recoverable by the caller resubmitting
// corrected input.
func NewValidationError(message string) *DomainError {
	return NewDomainError("VALIDATION_ERROR", message)
}

// NewConflictError creates a domain error for operations that violate a
// state-machine or immutability invariant. Conflicts are never retried
// automatically.
func NewConflictError(message string) *DomainError {
	return NewDomainError("CONFLICT", message)
}

// NewNotFoundError creates a domain error for a missing payment or entry.
func NewNotFoundError(message string) *DomainError {
	return NewDomainError("NOT_FOUND", message)
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// IsValidationError reports whether err is a validation-class domain error.
func IsValidationError(err error) bool {
	de, ok := err.(*DomainError)
	return ok && (de.Code == "VALIDATION_ERROR" || de.Code == "INVALID_INPUT")
}

// IsConflictError reports whether err is a conflict-class domain error.
func IsConflictError(err error) bool {
	de, ok := err.(*DomainError)
	if !ok {
		return false
	}
	switch de.Code {
	case "CONFLICT", "INVALID_STATE", "CONCURRENCY_CONFLICT", "OPTIMISTIC_LOCK_ERROR":
		return true
	}
	return false
}

// IsNotFoundError reports whether err is a not-found domain error.
func IsNotFoundError(err error) bool {
	de, ok := err.(*DomainError)
	return ok && de.Code == "NOT_FOUND"
}
