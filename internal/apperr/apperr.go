// Package apperr defines the error taxonomy shared by the adapter, the façade and the HTTP layer.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure independently of where it happened.
type Kind string

const (
	KindUnreachable Kind = "unreachable"
	KindTimeout     Kind = "timeout"
	KindValidation  Kind = "validation"
	KindConflict    Kind = "conflict"
	KindNotFound    Kind = "not_found"
	KindEngine      Kind = "engine"
)

// Error is a classified failure. Status and Type are filled in when the engine reported the error.
type Error struct {
	Kind    Kind
	Status  int
	Type    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Unreachable wraps a transport-level failure. Context expiry is reported as a timeout instead.
func Unreachable(op string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTimeout, Message: op, Err: err}
	}
	return &Error{Kind: KindUnreachable, Message: op, Err: err}
}

// Engine builds an error reported by the engine itself; the kind is derived from its HTTP status and type.
func Engine(status int, errType, reason string) *Error {
	kind := KindEngine
	switch {
	case status == 404:
		kind = KindNotFound
	case status == 409, errType == "resource_already_exists_exception", errType == "version_conflict_engine_exception":
		kind = KindConflict
	case errType == "mapper_parsing_exception", errType == "illegal_argument_exception", errType == "parsing_exception":
		kind = KindValidation
	}
	if reason == "" {
		reason = errType
	}
	return &Error{Kind: kind, Status: status, Type: errType, Message: reason}
}

// KindOf returns the kind of the first *Error in err's chain, KindTimeout for bare
// context errors and KindEngine otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimeout
	}
	return KindEngine
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
