package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for Attune framework errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
	CONFIG_NOT_FOUND         ErrorCode = "CONFIG_NOT_FOUND"
)

// Access control error codes
const (
	ACCESS_DENIED       ErrorCode = "ACCESS_DENIED"
	ACCESS_TIER_INVALID ErrorCode = "ACCESS_TIER_INVALID"
)

// AttuneError represents a structured error with error code, message, and optional cause.
// It supports error wrapping and retryability hints for error handling logic.
type AttuneError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *AttuneError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
// This enables using errors.Is() and errors.As() with wrapped errors.
func (e *AttuneError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is an AttuneError with the same Code.
func (e *AttuneError) Is(target error) bool {
	var attuneErr *AttuneError
	if errors.As(target, &attuneErr) {
		return e.Code == attuneErr.Code
	}
	return false
}

// NewError creates a new non-retryable AttuneError with the given code and message.
func NewError(code ErrorCode, message string) *AttuneError {
	return &AttuneError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     nil,
	}
}

// NewRetryableError creates a new retryable AttuneError with the given code and message.
// Use this for transient errors that may succeed on retry (e.g., network timeouts).
func NewRetryableError(code ErrorCode, message string) *AttuneError {
	return &AttuneError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     nil,
	}
}

// WrapError creates a new non-retryable AttuneError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *AttuneError {
	return &AttuneError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     cause,
	}
}

// ErrorCodeOf extracts the ErrorCode from an error if it is an AttuneError.
// Returns an empty code and false otherwise.
func ErrorCodeOf(err error) (ErrorCode, bool) {
	var attuneErr *AttuneError
	if errors.As(err, &attuneErr) {
		return attuneErr.Code, true
	}
	return "", false
}
