package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed        ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationDates         ErrorCode = "VALIDATION_DATES"
	ErrorCodeValidationAmountInvalid ErrorCode = "VALIDATION_AMOUNT_INVALID"

	// State Machine Errors (TRANSITION_*)
	ErrorCodeTransitionInvalid ErrorCode = "TRANSITION_INVALID"

	// Concurrency Errors (CONFLICT_*)
	ErrorCodeConflictActivePayment ErrorCode = "CONFLICT_ACTIVE_PAYMENT"
	ErrorCodeConflictStaleState    ErrorCode = "CONFLICT_STALE_STATE"

	// Webhook Authentication Errors (AUTH_*)
	ErrorCodeAuthSignatureMismatch ErrorCode = "AUTH_SIGNATURE_MISMATCH"

	// Payment Gateway Errors (GATEWAY_*)
	ErrorCodeGatewayError    ErrorCode = "GATEWAY_ERROR"
	ErrorCodeGatewayTimeout  ErrorCode = "GATEWAY_TIMEOUT"
	ErrorCodeGatewayDeclined ErrorCode = "GATEWAY_DECLINED"

	// Not Found Errors (NOT_FOUND_*)
	ErrorCodeReservationNotFound ErrorCode = "NOT_FOUND_RESERVATION"
	ErrorCodePaymentNotFound     ErrorCode = "NOT_FOUND_PAYMENT"
	ErrorCodeCatalogNotFound     ErrorCode = "NOT_FOUND_CATALOG"

	// Refund Errors (AMOUNT_*)
	ErrorCodeAmountExceedsRemainder ErrorCode = "AMOUNT_EXCEEDS_REMAINDER"

	// Data Integrity Errors (INTEGRITY_*)
	ErrorCodeIntegrityTxnMismatch ErrorCode = "INTEGRITY_TXN_MISMATCH"

	// Internal Errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail returns a copy of the error with the detail field added. The
// receiver is left untouched so the shared instances below stay immutable.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{
		Err:     e.Err,
		Details: details,
		Code:    e.Code,
		Message: e.Message,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeReservationNotFound ||
		code == ErrorCodePaymentNotFound ||
		code == ErrorCodeCatalogNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeValidationFailed ||
		code == ErrorCodeValidationDates ||
		code == ErrorCodeValidationAmountInvalid
}

// IsConflictError checks if an error indicates a concurrent mutation was detected
func IsConflictError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeConflictActivePayment ||
		code == ErrorCodeConflictStaleState
}

// IsGatewayError checks if an error is a payment gateway error
func IsGatewayError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeGatewayError ||
		code == ErrorCodeGatewayTimeout ||
		code == ErrorCodeGatewayDeclined
}

// IsRetryableGatewayError reports whether a gateway failure is transient.
// Only transport-level failures may be retried by the caller, and always with
// a fresh order id. A declared decline is final for the attempt.
func IsRetryableGatewayError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeGatewayTimeout || code == ErrorCodeGatewayError
}

// Structured error instances
var (
	ErrValidationFailed = NewDomainError(ErrorCodeValidationFailed, "validation failed")
	ErrValidationDates  = NewDomainError(ErrorCodeValidationDates, "rental start must be before rental end")
	ErrInvalidAmount    = NewDomainError(ErrorCodeValidationAmountInvalid, "invalid amount")

	ErrInvalidTransition = NewDomainError(ErrorCodeTransitionInvalid, "operation is not legal from the current state")

	ErrActivePaymentExists = NewDomainError(ErrorCodeConflictActivePayment, "reservation already has an active payment")
	ErrStaleState          = NewDomainError(ErrorCodeConflictStaleState, "state changed concurrently, retry with fresh state")

	ErrSignatureMismatch = NewDomainError(ErrorCodeAuthSignatureMismatch, "notification authentication failed")

	ErrGatewayError    = NewDomainError(ErrorCodeGatewayError, "payment gateway error")
	ErrGatewayTimedOut = NewDomainError(ErrorCodeGatewayTimeout, "payment gateway timeout")
	ErrGatewayDeclined = NewDomainError(ErrorCodeGatewayDeclined, "payment declined by gateway")

	ErrReservationNotFound = NewDomainError(ErrorCodeReservationNotFound, "reservation not found")
	ErrPaymentNotFound     = NewDomainError(ErrorCodePaymentNotFound, "payment not found")
	ErrCatalogNotFound     = NewDomainError(ErrorCodeCatalogNotFound, "branch or vehicle not found or inactive")

	ErrAmountExceedsRemainder = NewDomainError(ErrorCodeAmountExceedsRemainder, "refund amount exceeds refundable remainder")

	ErrTxnIDMismatch = NewDomainError(ErrorCodeIntegrityTxnMismatch, "completed payment has a different gateway transaction id")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)
