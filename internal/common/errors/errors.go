// Package errors provides the gateway's standardized error taxonomy.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Validation: local, recoverable, never escape the form screen.
	ErrCodeValidationFailed       ErrorCode = "VALIDATION_FAILED"
	ErrCodeServerValidationFailed ErrorCode = "SERVER_VALIDATION_FAILED"
	ErrCodeStockLimitExceeded     ErrorCode = "STOCK_LIMIT_EXCEEDED"

	// Authentication / authorization: resolved by a redirect.
	ErrCodeAuthenticationRequired ErrorCode = "AUTHENTICATION_REQUIRED"
	ErrCodeForbidden              ErrorCode = "FORBIDDEN"
	ErrCodeStageMismatch          ErrorCode = "REGISTRATION_STAGE_MISMATCH"

	// Transport: no structured body available.
	ErrCodeNetwork ErrorCode = "NETWORK_ERROR"

	// Upstream failures.
	ErrCodeUpstream          ErrorCode = "UPSTREAM_ERROR"
	ErrCodeUpstreamMalformed ErrorCode = "UPSTREAM_MALFORMED_RESPONSE"

	// Gateway-local.
	ErrCodeSubmissionInProgress ErrorCode = "SUBMISSION_IN_PROGRESS"
	ErrCodeSessionStoreFailed   ErrorCode = "SESSION_STORE_FAILED"
	ErrCodeNotFound             ErrorCode = "NOT_FOUND"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, when one was recorded.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError reports client-side validation failures.
func NewValidationError(fieldCount int) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Please correct the highlighted fields",
		Details:   fmt.Sprintf("%d field(s) failed validation", fieldCount),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewServerValidationError reports a 4xx response carrying field errors.
func NewServerValidationError(status int) *StandardError {
	return &StandardError{
		Code:      ErrCodeServerValidationFailed,
		Message:   "Please correct the highlighted fields",
		Details:   fmt.Sprintf("upstream status %d", status),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStockLimitError rejects a cart quantity above the available stock.
func NewStockLimitError(itemID string, available int) *StandardError {
	return &StandardError{
		Code:      ErrCodeStockLimitExceeded,
		Message:   fmt.Sprintf("Only %d item(s) left in stock", available),
		Details:   fmt.Sprintf("itemId: %s", itemID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthenticationError creates a non-retryable authentication error.
func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthenticationRequired,
		Message:   "Please sign in to continue",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewForbiddenError creates a non-retryable authorization error.
func NewForbiddenError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeForbidden,
		Message:   "You do not have access to this page",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStageMismatchError reports a submission for a stage that is not current.
func NewStageMismatchError(current, requested string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStageMismatch,
		Message:   "This registration step is not available yet",
		Details:   fmt.Sprintf("current: %s, requested: %s", current, requested),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNetworkError wraps a transport failure. Always retryable.
func NewNetworkError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNetwork,
		Message:   "We couldn't reach the server. Please check your connection and try again.",
		Details:   fmt.Sprintf("service: %s, error: %v", service, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewUpstreamError reports a 5xx from the marketplace API.
func NewUpstreamError(status int, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstream,
		Message:   "Something went wrong on our side. Please try again later.",
		Details:   fmt.Sprintf("status: %d, body: %s", status, details),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamMalformedError reports a body that does not match the envelope.
func NewUpstreamMalformedError(status int, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamMalformed,
		Message:   "Something went wrong on our side. Please try again later.",
		Details:   fmt.Sprintf("status: %d, error: %v", status, err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewSubmissionInProgressError refuses a re-entrant submit.
func NewSubmissionInProgressError(form string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionInProgress,
		Message:   "Your previous submission is still being processed",
		Details:   fmt.Sprintf("form: %s", form),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionStoreError wraps a session persistence failure.
func NewSessionStoreError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionStoreFailed,
		Message:   "Session storage error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewNotFoundError creates a non-retryable not found error.
func NewNotFoundError(resource, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps anything unexpected.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandard normalizes any error into a StandardError.
func AsStandard(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// HasCode reports whether err is a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == code
}

// IsRetryable checks if an error may succeed when repeated unchanged.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// HTTPStatus maps an error code to the status the gateway answers with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodeServerValidationFailed, ErrCodeStockLimitExceeded:
		return http.StatusUnprocessableEntity
	case ErrCodeAuthenticationRequired:
		return http.StatusUnauthorized
	case ErrCodeForbidden, ErrCodeStageMismatch:
		return http.StatusForbidden
	case ErrCodeSubmissionInProgress:
		return http.StatusConflict
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeNetwork:
		return http.StatusServiceUnavailable
	case ErrCodeUpstream, ErrCodeUpstreamMalformed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "STOCK"):
		return "VALIDATION"
	case strings.Contains(codeStr, "AUTH") || strings.Contains(codeStr, "FORBIDDEN") || strings.Contains(codeStr, "STAGE"):
		return "AUTH"
	case strings.Contains(codeStr, "NETWORK"):
		return "NETWORK"
	case strings.Contains(codeStr, "UPSTREAM"):
		return "SERVER"
	default:
		return "OTHER"
	}
}
