package core

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// FieldMap returns the field errors keyed by field name.
func (err ValidationError) FieldMap() map[string]string {
	m := make(map[string]string, len(err.Fields))
	for _, f := range err.Fields {
		m[f.Field] = f.Error
	}
	return m
}

// Kind classifies an upstream failure.
type Kind string

const (
	KindNetwork      Kind = "network"      // transport failure or 5xx
	KindRejected     Kind = "rejected"     // envelope success=false
	KindNotFound     Kind = "not_found"    // 404
	KindUnauthorized Kind = "unauthorized" // 401/403
	KindValidation   Kind = "validation"   // 400/422
	KindCanceled     Kind = "canceled"     // caller went away
)

// APIError is the typed failure of a call to the institute backend.
type APIError struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func NewAPIError(kind Kind, status int, msg string, err error) *APIError {
	return &APIError{Kind: kind, Status: status, Message: msg, Err: err}
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *APIError) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or "" when err is not an APIError.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return ""
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
