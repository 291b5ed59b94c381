package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the caller. Every request-scoped failure in the
// service carries exactly one kind; none of them is fatal to the process.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindProvider         Kind = "provider"
	KindPolicyResolution Kind = "policy_resolution"
	KindNotFound         Kind = "not_found"
	KindIntegrity        Kind = "integrity"
	KindConflict         Kind = "conflict"
	KindInternal         Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, nil, format, args...)
}

func Provider(err error, format string, args ...interface{}) *Error {
	return New(KindProvider, err, format, args...)
}

func PolicyResolution(err error, format string, args ...interface{}) *Error {
	return New(KindPolicyResolution, err, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, nil, format, args...)
}

func Integrity(format string, args ...interface{}) *Error {
	return New(KindIntegrity, nil, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return New(KindConflict, nil, format, args...)
}

func Internal(err error, format string, args ...interface{}) *Error {
	return New(KindInternal, err, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error kind onto the transport status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindIntegrity, KindConflict:
		return http.StatusConflict
	case KindPolicyResolution:
		return http.StatusUnprocessableEntity
	case KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Detail is the message shown to a human. Internal and upstream provider
// errors never leak their cause.
func Detail(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "internal error"
	}
	switch e.Kind {
	case KindInternal:
		if e.Message != "" {
			return e.Message
		}
		return "internal error"
	case KindProvider:
		if e.Message != "" {
			return e.Message
		}
		return "candidate source failed"
	}
	return e.Error()
}
