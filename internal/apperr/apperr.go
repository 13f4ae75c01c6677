// Package apperr defines the error taxonomy shared by the HTTP handlers.
//
// Components return *Error values (or wrap them with %w); the API layer maps
// them to a response status with errors.As:
//
//	var appErr *apperr.Error
//	if errors.As(err, &appErr) {
//	    c.JSON(appErr.HTTPStatus(), ...)
//	}
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies where a failure came from.
type Kind string

const (
	// KindCallerInput is a missing or invalid request parameter.
	KindCallerInput Kind = "CALLER_INPUT"
	// KindUpstream is a failure talking to a third-party dependency.
	KindUpstream Kind = "UPSTREAM"
	// KindConversion is a non-zero exit or timeout from the transcoder.
	KindConversion Kind = "CONVERSION"
	// KindExtraction is a structural query that could not be evaluated.
	// Extractors recover these per field; they never reach a caller.
	KindExtraction Kind = "EXTRACTION"
	// KindUnexpected is anything else.
	KindUnexpected Kind = "UNEXPECTED"
)

// HTTPStatus returns the default response status for a kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindCallerInput, KindUpstream:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure with a client-facing message.
type Error struct {
	Kind    Kind
	Message string
	// Detail carries diagnostic output, e.g. transcoder stderr.
	Detail string
	// Status overrides the kind's default status when non-zero.
	Status int
	// UpstreamStatus is the dependency's response status, if it answered.
	UpstreamStatus int
	cause          error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error with the same Kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// HTTPStatus returns the response status for this error.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return e.Kind.HTTPStatus()
}

// WithCause returns a copy wrapping err.
func (e *Error) WithCause(err error) *Error {
	out := *e
	out.cause = err
	return &out
}

// WithDetail returns a copy carrying diagnostic output.
func (e *Error) WithDetail(detail string) *Error {
	out := *e
	out.Detail = detail
	return &out
}

// WithStatus returns a copy answering with status instead of the kind default.
func (e *Error) WithStatus(status int) *Error {
	out := *e
	out.Status = status
	return &out
}

// Sentinels for errors.Is.
var (
	ErrCallerInput = &Error{Kind: KindCallerInput, Message: "invalid request"}
	ErrUpstream    = &Error{Kind: KindUpstream, Message: "upstream failure"}
	ErrConversion  = &Error{Kind: KindConversion, Message: "conversion failed"}
	ErrExtraction  = &Error{Kind: KindExtraction, Message: "extraction failed"}
	ErrUnexpected  = &Error{Kind: KindUnexpected, Message: "unexpected error"}
)

// CallerInput creates a caller input error.
func CallerInput(msg string) *Error {
	return &Error{Kind: KindCallerInput, Message: msg}
}

// Upstream creates an upstream error. status is the dependency's response status, 0 if none.
func Upstream(msg string, status int) *Error {
	return &Error{Kind: KindUpstream, Message: msg, UpstreamStatus: status}
}

// Conversion creates a transcoder error carrying its diagnostic output.
func Conversion(msg, detail string) *Error {
	return &Error{Kind: KindConversion, Message: msg, Detail: detail}
}

// Unexpected wraps an unclassified error.
func Unexpected(err error) *Error {
	msg := "unexpected error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{Kind: KindUnexpected, Message: msg, cause: err}
}

// From returns err as an *Error, classifying unknown errors as unexpected.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Unexpected(err)
}
