// Package apperr carries machine-readable error codes across service
// boundaries so handlers can map failures to HTTP statuses without
// string matching.
package apperr

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeInvalidArgument  Code = "invalid_argument"
	CodeInvalidState     Code = "invalid_state"
	CodePermissionDenied Code = "permission_denied"
	CodeNotFound         Code = "not_found"
	// CodeCreditLedger marks soft failures: logged by the caller,
	// never propagated to fail a parent transition.
	CodeCreditLedger Code = "credit_ledger_failure"
)

type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func New(code Code, msg string) *Error { return &Error{Code: code, Message: msg} }

func Wrap(code Code, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, cause: cause}
}

func InvalidArgumentf(format string, args ...any) *Error {
	return New(CodeInvalidArgument, fmt.Sprintf(format, args...))
}

func InvalidState(msg string) *Error { return New(CodeInvalidState, msg) }

func PermissionDenied(msg string) *Error { return New(CodePermissionDenied, msg) }

func NotFound(what string) *Error { return New(CodeNotFound, what+" not found") }

// CodeOf extracts the code from an error chain; unknown errors report
// an empty code.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func Is(err error, code Code) bool { return CodeOf(err) == code }
