// Package apperr classifies failures so the request boundary can translate
// them into responses without knowing which component produced them.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the failure category.
type Kind int

const (
	KindUnknown     Kind = iota
	KindInput            // usage mistakes: no file, no text, unreadable image
	KindExternal         // recognition or generative backend failed, incl. timeouts
	KindPersistence      // insert failed or store unreachable
	KindTemplate         // Stage 1 or Stage 2 of the templater failed
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindExternal:
		return "external"
	case KindPersistence:
		return "persistence"
	case KindTemplate:
		return "template"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error attaches a Kind and the failing operation to an underlying error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err. A nil err yields nil.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrap joins a sentinel with its cause so both survive errors.Is.
func Wrap(kind Kind, op string, sentinel, cause error) error {
	if cause == nil {
		return &Error{Kind: kind, Op: op, Err: sentinel}
	}
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf("%w: %w", sentinel, cause)}
}

// KindOf returns the Kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
