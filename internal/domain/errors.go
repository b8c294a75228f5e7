package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Gateway Errors (GATEWAY_*)
	ErrorCodeGatewayCommFailed      ErrorCode = "GATEWAY_COMM_FAILED"
	ErrorCodeGatewayInvalidResponse ErrorCode = "GATEWAY_INVALID_RESPONSE"
	ErrorCodeGatewayUnavailable     ErrorCode = "GATEWAY_UNAVAILABLE"

	// Digest Errors (DIGEST_*)
	ErrorCodeDigestMismatch         ErrorCode = "DIGEST_MISMATCH"
	ErrorCodeDigestUnknownAlgorithm ErrorCode = "DIGEST_UNKNOWN_ALGORITHM"
	ErrorCodeDigestMissingField     ErrorCode = "DIGEST_MISSING_FIELD"

	// Transaction Errors (TXN_*)
	ErrorCodeTxnNotFound     ErrorCode = "TXN_NOT_FOUND"
	ErrorCodeTxnInvalidState ErrorCode = "TXN_INVALID_STATE"
	ErrorCodeTxnNoReference  ErrorCode = "TXN_NO_CROSS_REFERENCE"

	// Order Errors (ORDER_*)
	ErrorCodeOrderNotFound ErrorCode = "ORDER_NOT_FOUND"
	ErrorCodeOrderMismatch ErrorCode = "ORDER_MISMATCH"

	// Challenge Errors (CHALLENGE_*)
	ErrorCodeChallengeNotPending ErrorCode = "CHALLENGE_NOT_PENDING"
	ErrorCodeChallengeIncomplete ErrorCode = "CHALLENGE_INCOMPLETE_DATA"

	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed         ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationAmountInvalid  ErrorCode = "VALIDATION_AMOUNT_INVALID"
	ErrorCodeValidationMissingField   ErrorCode = "VALIDATION_MISSING_FIELD"
	ErrorCodeValidationUnknownCode    ErrorCode = "VALIDATION_UNKNOWN_CURRENCY"
	ErrorCodeValidationUnknownCountry ErrorCode = "VALIDATION_UNKNOWN_COUNTRY"

	// Secret Errors (SECRET_*)
	ErrorCodeSecretNotFound ErrorCode = "SECRET_NOT_FOUND"

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

// WithDetail returns a copy of the error with an added detail field. The
// receiver is left untouched so the shared sentinel instances stay clean.
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

// IsDigestError checks if an error is a hash digest verification error
func IsDigestError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeDigestMismatch ||
		code == ErrorCodeDigestUnknownAlgorithm ||
		code == ErrorCodeDigestMissingField
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeValidationFailed ||
		code == ErrorCodeValidationAmountInvalid ||
		code == ErrorCodeValidationMissingField ||
		code == ErrorCodeValidationUnknownCode ||
		code == ErrorCodeValidationUnknownCountry
}

// Structured error instances
var (
	ErrGatewayCommFailed      = NewDomainError(ErrorCodeGatewayCommFailed, "communication with the payment gateway failed")
	ErrGatewayInvalidResponse = NewDomainError(ErrorCodeGatewayInvalidResponse, "payment gateway returned an unusable response")

	ErrDigestMismatch     = NewDomainError(ErrorCodeDigestMismatch, "hash digest does not match")
	ErrDigestMissingField = NewDomainError(ErrorCodeDigestMissingField, "required digest field missing")

	ErrTxnNotFound     = NewDomainError(ErrorCodeTxnNotFound, "transaction not found")
	ErrTxnInvalidState = NewDomainError(ErrorCodeTxnInvalidState, "transaction is in invalid state for this operation")
	ErrTxnNoReference  = NewDomainError(ErrorCodeTxnNoReference, "no cross reference available for this operation")

	ErrOrderNotFound = NewDomainError(ErrorCodeOrderNotFound, "order not found")
	ErrOrderMismatch = NewDomainError(ErrorCodeOrderMismatch, "order does not match the referenced transaction")

	ErrChallengeNotPending = NewDomainError(ErrorCodeChallengeNotPending, "no pending 3-D Secure challenge for this order")
	ErrChallengeIncomplete = NewDomainError(ErrorCodeChallengeIncomplete, "challenge response is missing required redirect data")

	ErrValidationAmountInvalid = NewDomainError(ErrorCodeValidationAmountInvalid, "invalid amount")
	ErrValidationMissingField  = NewDomainError(ErrorCodeValidationMissingField, "required field missing")
	ErrUnknownCurrency         = NewDomainError(ErrorCodeValidationUnknownCode, "unknown currency code")
	ErrUnknownCountry          = NewDomainError(ErrorCodeValidationUnknownCountry, "unknown country code")

	ErrSecretNotFound = NewDomainError(ErrorCodeSecretNotFound, "secret not found")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)
