package client

import (
	"errors"
	"fmt"
)

// Failure kinds. Callers dispatch with errors.Is; every error returned by the
// client unwraps to exactly one of these.
var (
	ErrValidation        = errors.New("client: validation failed")
	ErrUnauthenticated   = errors.New("client: unauthenticated")
	ErrForbidden         = errors.New("client: forbidden")
	ErrNotFound          = errors.New("client: not found")
	ErrDuplicate         = errors.New("client: relationship already exists")
	ErrInvalidTransition = errors.New("client: invalid transition")
	ErrCancelled         = errors.New("client: operation cancelled")
	ErrNetwork           = errors.New("client: network unavailable")
	ErrUnexpected        = errors.New("client: unexpected error")
)

// Error carries what the server said alongside the local classification.
type Error struct {
	Op      string // client operation, e.g. "login"
	Message string // human-readable description
	Reason  string // server reason code, empty for local failures
	Status  int    // HTTP status, zero for local failures
	kind    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.kind }

func opErr(op string, kind error, msg string) *Error {
	return &Error{Op: op, Message: msg, kind: kind}
}

// kindForResponse classifies a server error body by status and reason code.
func kindForResponse(status int, reason string) error {
	switch status {
	case 400:
		return ErrValidation
	case 401:
		return ErrUnauthenticated
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	case 409:
		switch reason {
		case "duplicate_relationship":
			return ErrDuplicate
		case "invalid_transition":
			return ErrInvalidTransition
		}
		return ErrUnexpected
	default:
		return ErrUnexpected
	}
}
