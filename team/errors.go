package team

import (
	"errors"
	"fmt"
)

// Code classifies a service failure. The set is closed; hosts map codes
// to their own status vocabulary.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeInvalidAction Code = "INVALID_ACTION"
	CodeExpired       Code = "EXPIRED"
	CodeInternal      Code = "INTERNAL_ERROR"
)

// Error is the typed failure every service operation returns. Messages
// are human-readable but not contractually stable; codes are.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any, for errors.Is/As chains.
// Internal errors keep their store-level cause here; it is logged by the
// service and never rendered to callers.
func (e *Error) Unwrap() error {
	return e.cause
}

// AsError extracts a service *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func validationErr(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

func unauthorizedErr(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

func notFoundErr(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

func conflictErr(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

func invalidActionErr(msg string) *Error {
	return &Error{Code: CodeInvalidAction, Message: msg}
}

func expiredErr(msg string) *Error {
	return &Error{Code: CodeExpired, Message: msg}
}

func internalErr(msg string, cause error) *Error {
	return &Error{Code: CodeInternal, Message: msg, cause: cause}
}
