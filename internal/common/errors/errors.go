// Package errors provides standardized error handling for the garage back-office service.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// User input
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeUnknownService   ErrorCode = "UNKNOWN_SERVICE"
	ErrCodeInvalidAmount    ErrorCode = "INVALID_AMOUNT"

	// Lookup oracle
	ErrCodeMissingCredentials  ErrorCode = "MISSING_CREDENTIALS"
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrCodeUpstreamRejected    ErrorCode = "UPSTREAM_REJECTED"

	// Record store / object storage
	ErrCodeStorageError   ErrorCode = "STORAGE_ERROR"
	ErrCodeRecordNotFound ErrorCode = "RECORD_NOT_FOUND"
	ErrCodeFileTooLarge   ErrorCode = "FILE_TOO_LARGE"

	// Notifications
	ErrCodeNotificationUnavailable ErrorCode = "NOTIFICATION_UNAVAILABLE"
	ErrCodeNotificationSendFailed  ErrorCode = "NOTIFICATION_SEND_FAILED"

	// Environment
	ErrCodeConfigurationError ErrorCode = "CONFIGURATION_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// CodeOf extracts the ErrorCode from err, or "" when err is not a StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// AsStandard unwraps err into a StandardError when possible.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationFailedError creates a non-retryable user-input error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownServiceError creates a non-retryable catalog error.
func NewUnknownServiceError(serviceKey string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownService,
		Message:   "Registration service not found in catalog",
		Details:   fmt.Sprintf("serviceKey: %s", serviceKey),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidAmountError creates a non-retryable pricing error.
func NewInvalidAmountError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidAmount,
		Message:   "Amount must be finite and non-negative",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingCredentialsError creates a fatal, non-retryable configuration error
// for an external collaborator whose credentials are absent.
func NewMissingCredentialsError(collaborator string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingCredentials,
		Message:   fmt.Sprintf("Credentials for '%s' are not configured", collaborator),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamUnavailableError creates a lookup transport error. Recoverable only
// through a user-initiated retry, never automatically.
func NewUpstreamUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamUnavailable,
		Message:   "Vehicle lookup service unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamRejectedError carries the oracle's own error message verbatim.
func NewUpstreamRejectedError(oracleMessage string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamRejected,
		Message:   oracleMessage,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageError creates a record-store or object-store failure.
func NewStorageError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageError,
		Message:   "Storage operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecordNotFoundError creates a non-retryable missing-record error.
func NewRecordNotFoundError(collection, id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordNotFound,
		Message:   fmt.Sprintf("Record not found in %s", collection),
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFileTooLargeError creates a non-retryable upload size error.
func NewFileTooLargeError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFileTooLarge,
		Message:   "Uploaded file exceeds the size limit",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationUnavailableError signals that relay connectivity verification
// failed before any email was sent.
func NewNotificationUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationUnavailable,
		Message:   "Email relay is unreachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a relay send error.
func NewNotificationSendFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigurationError creates a fatal missing-environment error.
func NewConfigurationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigurationError,
		Message:   "Required configuration is missing",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsRecoverableByUser reports whether the failure can be resolved by the user
// re-invoking the action (the only retry mechanism in this system).
func IsRecoverableByUser(code ErrorCode) bool {
	switch code {
	case ErrCodeUpstreamUnavailable, ErrCodeNotificationUnavailable, ErrCodeNotificationSendFailed:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "UNKNOWN"):
		return "VALIDATION"
	case strings.Contains(codeStr, "UPSTREAM") || strings.Contains(codeStr, "CREDENTIALS"):
		return "LOOKUP"
	case strings.Contains(codeStr, "STORAGE") || strings.Contains(codeStr, "RECORD") || strings.Contains(codeStr, "FILE"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "CONFIGURATION"):
		return "CONFIGURATION"
	default:
		return "OTHER"
	}
}
