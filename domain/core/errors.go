package core

import (
	"errors"
	"fmt"
)

// Error codes for the statistical engine. Every failure surfaced by the
// analysis packages carries exactly one of these.
const (
	CodeSchemaViolation   = "SCHEMA_VIOLATION"
	CodeInsufficientData  = "INSUFFICIENT_DATA"
	CodeDivisionUndefined = "DIVISION_UNDEFINED"
	CodeShapeMismatch     = "SHAPE_MISMATCH"
	CodeCoverageGap       = "COVERAGE_GAP"
	CodeInvalidCount      = "INVALID_COUNT"
	CodeConfigInvalid     = "CONFIG_INVALID"
	CodeStorageError      = "STORAGE_ERROR"
	CodeNotFound          = "NOT_FOUND"
)

// AppError is a structured error with a stable machine-readable code.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewError creates a new AppError with the given code.
func NewError(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap adds context to an error, preserving an existing code when present.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	code := CodeStorageError
	var appErr *AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// HasCode reports whether err carries the given error code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// SchemaError reports a dataset that fails structural validation.
func SchemaError(format string, args ...interface{}) *AppError {
	return NewError(CodeSchemaViolation, fmt.Sprintf(format, args...))
}

// InsufficientDataError reports a sample too small or degenerate for the
// requested estimator.
func InsufficientDataError(format string, args ...interface{}) *AppError {
	return NewError(CodeInsufficientData, fmt.Sprintf(format, args...))
}

// DivisionUndefinedError reports a zero or near-zero denominator in ratio
// estimation.
func DivisionUndefinedError(format string, args ...interface{}) *AppError {
	return NewError(CodeDivisionUndefined, fmt.Sprintf(format, args...))
}

// ShapeMismatchError reports a cardinality mismatch between paired
// collections.
func ShapeMismatchError(format string, args ...interface{}) *AppError {
	return NewError(CodeShapeMismatch, fmt.Sprintf(format, args...))
}

// CoverageError reports a covariate provider that omitted required keys.
func CoverageError(format string, args ...interface{}) *AppError {
	return NewError(CodeCoverageGap, fmt.Sprintf(format, args...))
}

// InvalidCountError reports out-of-domain inputs to the sequential interval
// functions.
func InvalidCountError(format string, args ...interface{}) *AppError {
	return NewError(CodeInvalidCount, fmt.Sprintf(format, args...))
}

// ConfigInvalid reports invalid service configuration.
func ConfigInvalid(message string) *AppError {
	return NewError(CodeConfigInvalid, message)
}
