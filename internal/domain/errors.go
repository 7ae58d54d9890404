package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the engine.
var (
	ErrNotFound = errors.New("not found")
)

// Error codes used in API responses and audit records.
const (
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeUnsupportedPayer = "UNSUPPORTED_PAYER_TYPE"
	ErrCodeDatabaseError    = "DATABASE_ERROR"
	ErrCodeExtractionError  = "EXTRACTION_ERROR"
	ErrCodeInternalServer   = "INTERNAL_SERVER_ERROR"
)

// UnsupportedPayerTypeError is returned when a reimbursement calculation is
// requested for a payer type outside the fixed enumeration. The calculator
// never substitutes a default payer algorithm.
type UnsupportedPayerTypeError struct {
	PayerType string
}

func (e *UnsupportedPayerTypeError) Error() string {
	return fmt.Sprintf("unsupported payer type %q", e.PayerType)
}

// ValidationError reports an invalid input field on an assessment call.
// All validation failures are local to a single assessment.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}
