// Package errors provides standardized error handling for the intake API.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	ErrCodeDuplicateSubmission ErrorCode = "DUPLICATE_SUBMISSION"
	ErrCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrCodeInvalidArgument     ErrorCode = "INVALID_ARGUMENT"
	ErrCodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	ErrCodeIOError             ErrorCode = "IO_ERROR"
	ErrCodeSheetsSyncFailed    ErrorCode = "SHEETS_SYNC_FAILED"
	ErrCodeNotificationFailed  ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
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

// FieldError describes a single failed validation rule on a named field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidationError carries the full list of collected field errors.
type ValidationError struct {
	*StandardError
	Fields []FieldError `json:"errors"`
}

// Unwrap exposes the embedded StandardError to errors.As / errors.Is.
func (e *ValidationError) Unwrap() error {
	return e.StandardError
}

// NewValidationFailedError wraps collected field errors into a single error value.
func NewValidationFailedError(fields []FieldError) *ValidationError {
	return &ValidationError{
		StandardError: &StandardError{
			Code:      ErrCodeValidationFailed,
			Message:   "Validation hatası",
			Details:   fmt.Sprintf("%d field(s) failed validation", len(fields)),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		},
		Fields: fields,
	}
}

// NewDuplicateSubmissionError signals a repeated submission inside the cooldown window.
func NewDuplicateSubmissionError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateSubmission,
		Message:   "Son başvurunuzdan çok kısa süre geçmiş. Lütfen 2 dakika bekleyin.",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFoundError creates a non-retryable not found error.
func NewNotFoundError(resource, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s bulunamadı", resource),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidArgumentError creates a non-retryable bad input error.
func NewInvalidArgumentError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidArgument,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnauthorizedError creates a non-retryable authentication error.
func NewUnauthorizedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorized,
		Message:   "Geçersiz giriş bilgileri",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIOError creates a retryable storage error.
func NewIOError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIOError,
		Message:   "Storage operation failed",
		Details:   fmt.Sprintf("op: %s, error: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSheetsSyncFailedError creates a retryable sheet sync error.
func NewSheetsSyncFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSheetsSyncFailed,
		Message:   "Google Sheets write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Internal server error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
