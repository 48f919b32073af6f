// Package apierr defines the error taxonomy every store, file, and crypto
// operation in Pod returns, and which the HTTP handlers translate directly
// into a status code and a JSON body.
package apierr

import (
	"fmt"
	"net/http"
)

// Code is one of the five outcomes a Pod operation can report.
type Code string

const (
	BadRequest          Code = "BadRequest"
	Forbidden           Code = "Forbidden"
	NotFound            Code = "NotFound"
	Conflict            Code = "Conflict"
	InternalServerError Code = "InternalServerError"
)

// Status returns the HTTP status code for a taxonomy code.
func (c Code) Status() int {
	switch c {
	case BadRequest:
		return http.StatusBadRequest
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case InternalServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Error is a taxonomy-carrying error. Every fallible store/file/crypto
// operation returns one of these (wrapped or bare) instead of a bare error,
// so handlers never have to guess a status code from an error string.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a bare taxonomy error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a bare taxonomy error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a taxonomy code to an underlying error.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the taxonomy code of err, defaulting to InternalServerError
// for errors that were never classified — this is the one place an
// unclassified error is treated as a server bug rather than silently
// swallowed.
func CodeOf(err error) Code {
	var apiErr *Error
	if asError(err, &apiErr) {
		return apiErr.Code
	}
	return InternalServerError
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
