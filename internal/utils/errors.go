// Package utils provides the structured error type and logger shared by
// every PageProbe package.
package utils

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode categorizes a failure so the runner can map it to an outcome.
type ErrorCode string

const (
	// Check results
	ErrCodeAssertionFailed    ErrorCode = "ASSERTION_FAILED"
	ErrCodeElementNotFound    ErrorCode = "ELEMENT_NOT_FOUND"
	ErrCodeAttributeMissing   ErrorCode = "ATTRIBUTE_MISSING"
	ErrCodePreconditionNotMet ErrorCode = "PRECONDITION_NOT_MET"
	ErrCodeUnknownProperty    ErrorCode = "UNKNOWN_PROPERTY"

	// Browser related errors
	ErrCodeNavigationFailed ErrorCode = "NAVIGATION_FAILED"
	ErrCodeBrowserFailed    ErrorCode = "BROWSER_FAILED"
	ErrCodeScriptFailed     ErrorCode = "SCRIPT_FAILED"
	ErrCodeParsingError     ErrorCode = "PARSING_ERROR"

	// Configuration and output
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	ErrCodeOutputFailed  ErrorCode = "OUTPUT_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StructuredError carries a code, a human readable message and optional
// context fields describing which page element was involved.
type StructuredError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *StructuredError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		b.WriteString(" [" + strings.Join(parts, ", ") + "]")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause for error unwrapping
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// Is matches another StructuredError by code.
func (e *StructuredError) Is(target error) bool {
	if se, ok := target.(*StructuredError); ok {
		return e.Code == se.Code
	}
	return false
}

// ErrorBuilder provides a fluent interface for creating structured errors
type ErrorBuilder struct {
	error *StructuredError
}

// NewError starts a structured error.
func NewError(code ErrorCode, message string) *ErrorBuilder {
	return &ErrorBuilder{error: &StructuredError{Code: code, Message: message}}
}

// NewErrorf starts a structured error with a formatted message.
func NewErrorf(code ErrorCode, format string, args ...interface{}) *ErrorBuilder {
	return NewError(code, fmt.Sprintf(format, args...))
}

// WithCause sets the underlying cause
func (eb *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	eb.error.Cause = cause
	return eb
}

// WithContext adds contextual information
func (eb *ErrorBuilder) WithContext(key string, value interface{}) *ErrorBuilder {
	if eb.error.Context == nil {
		eb.error.Context = make(map[string]interface{})
	}
	eb.error.Context[key] = value
	return eb
}

// Build returns the constructed error
func (eb *ErrorBuilder) Build() *StructuredError {
	return eb.error
}

// CodeOf returns the code of the first StructuredError in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	var se *StructuredError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return errors.Is(err, &StructuredError{Code: code})
}
