package errors

import (
	"errors"
	"fmt"
)

// Error codes for programmatic handling.
const (
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeMemoryNotFound     = "MEMORY_NOT_FOUND"
	CodeNoMemories         = "NO_MEMORIES"
	CodeAccessDenied       = "ACCESS_DENIED"
	CodeThrottled          = "THROTTLED"
	CodeValidation         = "VALIDATION"
	CodeServiceError       = "SERVICE_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeCredentialsMissing = "CREDENTIALS_MISSING"
	CodeTimeout            = "TIMEOUT"
	CodeRunNotFound        = "RUN_NOT_FOUND"
)

// MemexError is a structured error with a code and actionable suggestion.
type MemexError struct {
	Code       string // machine-readable code (e.g. THROTTLED)
	Message    string // human-readable description
	Suggestion string // actionable fix
	Err        error  // wrapped underlying error
}

// Error implements the error interface.
func (e *MemexError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap supports errors.Is / errors.As.
func (e *MemexError) Unwrap() error {
	return e.Err
}

// New creates a MemexError with the given code and message.
func New(code, message string) *MemexError {
	return &MemexError{Code: code, Message: message}
}

// Wrap creates a MemexError wrapping an existing error.
func Wrap(code, message string, err error) *MemexError {
	return &MemexError{Code: code, Message: message, Err: err}
}

// WithSuggestion sets the suggestion and returns the same error.
func (e *MemexError) WithSuggestion(suggestion string) *MemexError {
	e.Suggestion = suggestion
	return e
}

// Is checks whether target matches this error's code.
func (e *MemexError) Is(target error) bool {
	var me *MemexError
	if errors.As(target, &me) {
		return e.Code == me.Code
	}
	return false
}

// AsCode extracts the MemexError code from an error, or "" if not a MemexError.
func AsCode(err error) string {
	var me *MemexError
	if errors.As(err, &me) {
		return me.Code
	}
	return ""
}

// Suggestion extracts the suggestion from an error, or "" if not a MemexError.
func Suggestion(err error) string {
	var me *MemexError
	if errors.As(err, &me) {
		return me.Suggestion
	}
	return ""
}

// Retryable reports whether err carries a code worth retrying.
func Retryable(err error) bool {
	switch AsCode(err) {
	case CodeThrottled, CodeServiceUnavailable:
		return true
	}
	return false
}
