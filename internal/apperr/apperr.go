// Package apperr defines the error kinds returned by services and middleware.
// The HTTP layer maps each kind to a status code in one place.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrTooManyRequests = errors.New("too many requests")
	ErrUnavailable     = errors.New("service unavailable")
)

// Error carries a kind and a client-facing message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

func New(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Unauthorized(msg string) *Error    { return New(ErrUnauthorized, msg) }
func Forbidden(msg string) *Error       { return New(ErrForbidden, msg) }
func Conflict(msg string) *Error        { return New(ErrConflict, msg) }
func NotFound(msg string) *Error        { return New(ErrNotFound, msg) }
func TooManyRequests(msg string) *Error { return New(ErrTooManyRequests, msg) }
func Unavailable(msg string) *Error     { return New(ErrUnavailable, msg) }

type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "Validation failed"
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Field != "" {
			msgs = append(msgs, f.Field+": "+f.Message)
		} else {
			msgs = append(msgs, f.Message)
		}
	}
	return "Validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func Invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: msg}}}
}

// Status returns the HTTP status for err and whether err is a known kind.
func Status(err error) (int, bool) {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, true
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, true
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, true
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, true
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, true
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, true
	}
	return http.StatusInternalServerError, false
}
