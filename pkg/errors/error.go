// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Definition errors (100-199): Invalid indicator definitions, rejected at write time
//   - Catalog errors (200-299): Indicator lookup and storage failures
//   - Dependency graph errors (300-399): Cycles, rename and cascade failures
//   - Execution errors (400-499): Per-indicator script execution failures
//   - Dataset errors (500-599): Dataset read/write and column shape errors
//   - Pipeline errors (600-699): Application pipeline wiring and config errors
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidIndicator, "indicator has no output column")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator %s not found", id)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeDatasetReadFailed, "failed to read dataset", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeDependencyCycle) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// CycleError represents a dependency cycle detected during topological
// sorting. Nodes holds the indicator ids for which a cycle was reported.
type CycleError struct {
	Nodes []string
}

// NewCycleError creates a new CycleError for the given indicator ids.
func NewCycleError(nodes []string) *CycleError {
	return &CycleError{Nodes: nodes}
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected involving: %s", strings.Join(e.Nodes, ", "))
}

// IsCycleError checks if an error is a CycleError.
// It uses errors.As to check the error chain.
func IsCycleError(err error) bool {
	var cycleErr *CycleError

	return errors.As(err, &cycleErr)
}
