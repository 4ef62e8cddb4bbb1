// Package errors provides the coded domain errors shared by the readtrack core.
//
// Usage:
//
//	// Local validation, produced before any network call
//	if strings.TrimSpace(name) == "" {
//	    return errors.InvalidField("name", "collection name is required")
//	}
//
//	// Callers check with errors.Is against the sentinels
//	if errors.Is(err, errors.ErrAuthRequired) {
//	    // ask the user to sign in
//	}
//
//	// Sequenced operations report which step failed
//	var stepErr *errors.StepError
//	if errors.As(err, &stepErr) && stepErr.Index == 1 {
//	    // "couldn't add to your library"
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the core.
const (
	CodeValidation         Code = "VALIDATION"
	CodeAuthRequired       Code = "AUTH_REQUIRED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeTransient          Code = "TRANSIENT"
	CodePrerequisiteFailed Code = "PREREQUISITE_FAILED"
	CodeConflict           Code = "CONFLICT"
	CodeInternal           Code = "INTERNAL"
)

// HTTPStatus returns the HTTP status code used when an error code crosses the intent API.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeAuthRequired:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodePrerequisiteFailed:
		return http.StatusFailedDependency
	case CodeTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"` // set for CodeValidation
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Field:   e.Field,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Field:   e.Field,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation error"}
	ErrAuthRequired       = &Error{Code: CodeAuthRequired, Message: "authentication required"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrTransient          = &Error{Code: CodeTransient, Message: "temporarily unavailable"}
	ErrPrerequisiteFailed = &Error{Code: CodePrerequisiteFailed, Message: "prerequisite failed"}
	ErrConflict           = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal           = &Error{Code: CodeInternal, Message: "internal error"}
)

// InvalidField creates a validation error for a single field.
func InvalidField(field, msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg, Field: field}
}

// Validation creates a validation error that is not tied to a known field,
// typically one reported by a collaborator.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(field, msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Field: field, Details: details}
}

// AuthRequired creates an authentication-required error.
func AuthRequired(msg string) *Error {
	return &Error{Code: CodeAuthRequired, Message: msg}
}

// NotFound creates a not found error for the given identifier.
func NotFound(id string) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s not found", id), Details: map[string]string{"id": id}}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Transient wraps a network or remote-availability failure. Safe to retry.
func Transient(cause error) *Error {
	return &Error{Code: CodeTransient, Message: "temporarily unavailable", cause: cause}
}

// Transientf creates a transient error with formatted message.
func Transientf(format string, args ...any) *Error {
	return &Error{Code: CodeTransient, Message: fmt.Sprintf(format, args...)}
}

// PrerequisiteFailed wraps a failure to resolve something a mutation depends on,
// for example the catalog record behind a library entry.
func PrerequisiteFailed(cause error) *Error {
	return &Error{Code: CodePrerequisiteFailed, Message: "prerequisite failed", cause: cause}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// StepError reports that step Index (1-based) of a sequenced operation failed.
// Steps after Index were never attempted. Total is the number of steps in the
// sequence, or 0 when unknown.
type StepError struct {
	Index int
	Total int
	Name  string
	Cause error
}

// StepFailed creates a StepError.
func StepFailed(index int, name string, cause error) *StepError {
	return &StepError{Index: index, Name: name, Cause: cause}
}

func (e *StepError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("step %d (%s) failed: %v", e.Index, e.Name, e.Cause)
	}
	return fmt.Sprintf("step %d failed: %v", e.Index, e.Cause)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}

// Terminal reports whether the failed step was the last of its sequence, the
// action itself rather than one of its prerequisites.
func (e *StepError) Terminal() bool {
	return e.Total > 0 && e.Index == e.Total
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// FieldOf returns the offending field of a validation error, if any.
func FieldOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Code == CodeValidation {
		return domainErr.Field
	}
	return ""
}

// IsRetryable reports whether err carries a transient failure anywhere in its chain.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
