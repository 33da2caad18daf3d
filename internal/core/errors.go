package core

import (
	"errors"
	"fmt"
)

// Kind classifies failures surfaced by the notes core.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindServiceError
	KindInvalidState
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindServiceError:
		return "service error"
	case KindInvalidState:
		return "invalid state"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is checks against an *Error of the same kind.
var (
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrServiceError = &Error{Kind: KindServiceError}
	ErrInvalidState = &Error{Kind: KindInvalidState}
)

// Error carries the failing operation and its kind; Err is the collaborator's
// underlying error, kept reachable through Unwrap.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return e.Kind.String()
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func notFound(op string, err error) error {
	return &Error{Kind: KindNotFound, Op: op, Err: err}
}

func serviceError(op string, err error) error {
	return &Error{Kind: KindServiceError, Op: op, Err: err}
}

func invalidState(op string, msg string) error {
	return &Error{Kind: KindInvalidState, Op: op, Err: errors.New(msg)}
}
