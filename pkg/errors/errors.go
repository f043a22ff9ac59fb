// Package errors defines the application error taxonomy shared by services and handlers.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an application error
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindForbidden
	KindValidation
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified error carrying a stable business code for API clients
type Error struct {
	Kind    Kind
	Code    int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches on Kind+Code so a wrapped copy still matches its sentinel
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// New creates a sentinel error
func New(kind Kind, code int, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap attaches a cause to a sentinel without losing its identity
func Wrap(sentinel *Error, cause error) *Error {
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Message: sentinel.Message, cause: cause}
}

// Validation builds an ad-hoc validation error with a specific message
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: message}
}

// KindOf reports the kind of err; unclassified errors are internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Generic codes; modules define their own ranges next to their sentinels
const (
	CodeInternal     = 50000
	CodeUnauthorized = 10002
	CodeForbidden    = 10003
	CodeValidation   = 10001
)

var (
	ErrUnauthorized = New(KindUnauthorized, CodeUnauthorized, "unauthenticated")
	ErrForbidden    = New(KindForbidden, CodeForbidden, "permission denied")
	ErrInternal     = New(KindInternal, CodeInternal, "internal server error")
)
