// Package errors provides custom error types and error handling utilities.
package errors

import (
	stderrors "errors"
	"fmt"
	"strconv"
)

// Error codes.
const (
	// Input errors. These abort the whole run.
	CodeValidation = "VALIDATION_ERROR"
	CodeDataFormat = "DATA_FORMAT_ERROR"
	CodeNotFound   = "NOT_FOUND"

	// Per-configuration errors. The run continues with the next analyzer.
	CodeAnalyzerUnavailable = "ANALYZER_UNAVAILABLE"
	CodeIndexBuild          = "INDEX_BUILD_ERROR"
	CodeSearch              = "SEARCH_ERROR"

	// Infrastructure errors.
	CodeInternal    = "INTERNAL_ERROR"
	CodeUnavailable = "SERVICE_UNAVAILABLE"
	CodeTimeout     = "TIMEOUT"
)

// AppError represents an application error with code and details.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Fatal reports whether the error must abort the whole evaluation run
// rather than a single analyzer configuration.
func (e *AppError) Fatal() bool {
	switch e.Code {
	case CodeAnalyzerUnavailable, CodeIndexBuild, CodeSearch:
		return false
	default:
		return true
	}
}

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with an AppError.
func Wrap(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// WithDetail adds a single detail to the error.
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Convenience constructors.

// ValidationError creates a validation error.
func ValidationError(message string) *AppError {
	return New(CodeValidation, message)
}

// NotFoundError creates a not found error.
func NotFoundError(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// DataFormatError reports a malformed line in a dataset file.
func DataFormatError(path string, line int, message string) *AppError {
	return New(CodeDataFormat, fmt.Sprintf("%s:%d: %s", path, line, message)).
		WithDetail("path", path).
		WithDetail("line", strconv.Itoa(line))
}

// AnalyzerUnavailableError reports an analyzer configuration that cannot be constructed.
func AnalyzerUnavailableError(analyzer, reason string) *AppError {
	return New(CodeAnalyzerUnavailable, fmt.Sprintf("analyzer %q: %s", analyzer, reason)).
		WithDetail("analyzer", analyzer)
}

// IndexBuildError creates an indexing error.
func IndexBuildError(message string, err error) *AppError {
	return Wrap(CodeIndexBuild, message, err)
}

// SearchError creates a query execution error.
func SearchError(message string, err error) *AppError {
	return Wrap(CodeSearch, message, err)
}

// InternalError creates an internal error.
func InternalError(message string, err error) *AppError {
	return Wrap(CodeInternal, message, err)
}

// TimeoutError creates a timeout error for a specific operation.
func TimeoutError(operation string) *AppError {
	message := "operation timed out"
	if operation != "" {
		message = fmt.Sprintf("%s timed out", operation)
	}
	return New(CodeTimeout, message)
}

// ServiceUnavailableError creates a service unavailable error.
func ServiceUnavailableError(service string) *AppError {
	message := "service unavailable"
	if service != "" {
		message = fmt.Sprintf("%s is unavailable", service)
	}
	return New(CodeUnavailable, message)
}

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsNotFound checks if error is a not found error.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

// IsValidation checks if error is a validation error.
func IsValidation(err error) bool {
	return CodeOf(err) == CodeValidation
}

// IsDataFormat checks if error is a malformed dataset error.
func IsDataFormat(err error) bool {
	return CodeOf(err) == CodeDataFormat
}

// IsAnalyzerUnavailable checks if error marks an unimplemented analyzer configuration.
func IsAnalyzerUnavailable(err error) bool {
	return CodeOf(err) == CodeAnalyzerUnavailable
}

// IsIndexBuild checks if error is an index build error.
func IsIndexBuild(err error) bool {
	return CodeOf(err) == CodeIndexBuild
}
