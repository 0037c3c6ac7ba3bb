// Package domainerrors defines the coded errors that cross the service
// boundary. Services return these (optionally wrapping an infrastructure
// cause); the HTTP layer translates them once, in httputil.WriteError.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the stable, client-visible error code.
type Code string

const (
	// Client errors (400)
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeQueryTooLarge  Code = "QUERY_TOO_LARGE"
	CodeUnboundedQuery Code = "UNBOUNDED_QUERY"

	// Auth errors (401)
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeAuthConfigMissing Code = "AUTH_CONFIG_MISSING"
	CodeAuthUnavailable   Code = "AUTH_UNAVAILABLE"
	CodeInvalidToken      Code = "INVALID_TOKEN"

	CodeNotFound    Code = "NOT_FOUND"
	CodeRateLimited Code = "RATE_LIMITED"

	// Dependency errors (500)
	CodeDataAPIMisconfigured Code = "DATA_API_MISCONFIGURED"
	CodeDataUnavailable      Code = "DATA_UNAVAILABLE"
	CodeInternal             Code = "INTERNAL_ERROR"
)

// Error is a domain error with a code, a human message and optional
// structured details for the caller to self-correct.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a domain error without an underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an infrastructure error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// WithDetails returns a copy of e carrying the given details.
func (e *Error) WithDetails(details map[string]any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// As extracts the domain error from err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// HTTPStatus maps a code to its HTTP status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeQueryTooLarge, CodeUnboundedQuery:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeAuthConfigMissing, CodeAuthUnavailable, CodeInvalidToken:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
