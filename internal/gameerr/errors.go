// Package gameerr defines the structured error taxonomy shared by the
// game engine and its transports. Every rejected command maps to exactly
// one Kind; state is never mutated before an error is raised.
package gameerr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error.
type Kind string

const (
	KindValidation    Kind = "VALIDATION"
	KindNotFound      Kind = "NOT_FOUND"
	KindPhaseConflict Kind = "PHASE_CONFLICT"
	KindAuthorization Kind = "AUTHORIZATION"
	KindConcurrency   Kind = "CONCURRENCY"
	KindPersistence   Kind = "PERSISTENCE"
	KindBroadcast     Kind = "BROADCAST"
)

// Error is a domain error with a kind and an operator-readable message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Validationf builds a VALIDATION error.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a NOT_FOUND error.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// PhaseConflictf builds a PHASE_CONFLICT error.
func PhaseConflictf(format string, args ...any) *Error {
	return &Error{Kind: KindPhaseConflict, Msg: fmt.Sprintf(format, args...)}
}

// Authorizationf builds an AUTHORIZATION error.
func Authorizationf(format string, args ...any) *Error {
	return &Error{Kind: KindAuthorization, Msg: fmt.Sprintf(format, args...)}
}

// Concurrencyf builds a CONCURRENCY error (lost a first-writer race).
func Concurrencyf(format string, args ...any) *Error {
	return &Error{Kind: KindConcurrency, Msg: fmt.Sprintf(format, args...)}
}

// Persistence wraps an infrastructure failure as PERSISTENCE.
func Persistence(err error, msg string) *Error {
	return &Error{Kind: KindPersistence, Msg: msg, Err: err}
}

// Broadcast wraps a fan-out failure as BROADCAST.
func Broadcast(err error, msg string) *Error {
	return &Error{Kind: KindBroadcast, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or "" for non-domain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
