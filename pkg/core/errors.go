package core

import (
	"errors"
	"fmt"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: unknown_mode, session_create, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is matches another ExecutionError by code, so predefined errors work as
// sentinels after WithCause/WithMessage copies.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	// Assertion errors
	ErrElementNotFound = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "element_not_found",
		Message:  "element not found",
	}
	ErrElementNotVisible = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "element_not_visible",
		Message:  "element not visible",
	}
	ErrCodeTooLong = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "code_too_long",
		Message:  "The entered value is longer than the number of available text fields.",
	}
	ErrAssertionFailed = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "assertion_failed",
		Message:  "assertion failed",
	}

	// Timeout errors
	ErrWaitTimeout = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "wait_timeout",
		Message:  "wait condition timed out",
	}

	// Connection errors
	ErrSessionCreate = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "session_create",
		Message:  "could not create automation session",
	}
	ErrServerUnreachable = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "server_unreachable",
		Message:  "could not connect to automation server",
	}
	ErrNoActiveSession = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "no_active_session",
		Message:  "no active automation session",
	}

	// Config errors
	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
	ErrMissingRequired = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "missing_required",
		Message:  "missing required field",
	}
	ErrUnknownMode = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "unknown_mode",
		Message:  "unknown driver mode",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// LoadingError reports that a screen or widget did not reach its loaded state.
type LoadingError struct {
	Message string
	Cause   error
}

// NewLoadingError creates a LoadingError for the named node.
func NewLoadingError(message string, cause error) *LoadingError {
	return &LoadingError{Message: message, Cause: cause}
}

// Error returns the message followed by the cause on its own line.
func (e *LoadingError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + "\n" + e.Cause.Error()
}

// Unwrap returns the underlying wait failure.
func (e *LoadingError) Unwrap() error {
	return e.Cause
}

// Categorizer is implemented by errors that know their category without
// being an ExecutionError.
type Categorizer interface {
	ErrorCategory() ErrorCategory
}

// CategoryOf returns the category of the outermost categorized error in the
// chain. Loading errors with no categorized cause count as timeouts.
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return ErrCategoryNone
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch v := e.(type) {
		case *ExecutionError:
			return v.Category
		case Categorizer:
			return v.ErrorCategory()
		}
	}
	var loadErr *LoadingError
	if errors.As(err, &loadErr) {
		return ErrCategoryTimeout
	}
	return ErrCategoryNone
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	return CategoryOf(err) == ErrCategoryConfig
}
