package errors

import (
	stderrors "errors"
	"net/http"
)

// HTTPStatus maps an internal error code to the HTTP status it is reported with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeDuplicateSubmission:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// AsStandardError extracts a StandardError from an error chain. Unknown
// errors are wrapped as INTERNAL_ERROR so every failure reaches the client
// in the same envelope.
func AsStandardError(err error) *StandardError {
	var ve *ValidationError
	if stderrors.As(err, &ve) {
		return ve.StandardError
	}
	var se *StandardError
	if stderrors.As(err, &se) {
		return se
	}
	return NewInternalError(err)
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se.Code == code
	}
	return false
}
