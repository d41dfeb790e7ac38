package core

import (
	"errors"
	"fmt"
)

// Kind classifies failures so the transport layer can pick a status code.
type Kind int

const (
	KindUnknown Kind = iota
	Unauthenticated
	NotFound
	Forbidden
	InvalidArgument
	PreconditionFailed
	Conflict
	StoreFailure
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	case InvalidArgument:
		return "invalid_argument"
	case PreconditionFailed:
		return "precondition_failed"
	case Conflict:
		return "conflict"
	case StoreFailure:
		return "store_failure"
	}
	return "unknown"
}

// Error is a tagged failure. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a tagged error without a cause.
func E(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap tags err with kind and a client-safe message.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Store wraps a persistence failure.
func Store(op string, err error) error {
	return &Error{Kind: StoreFailure, Message: op, Err: err}
}

// Invalid turns a validation error into an InvalidArgument failure.
func Invalid(err error) error {
	return &Error{Kind: InvalidArgument, Message: err.Error(), Err: err}
}

// KindOf returns the kind of the first tagged error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// MessageOf returns the client-safe message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
