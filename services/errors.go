package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Kind classifies a service failure so the HTTP layer can pick a status
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalid
	KindConflict
	KindUnavailable
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalid:
		return "invalid"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, KindInternal for foreign errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the client-facing message of err
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "Internal server error"
}

func notFound(op, msg string) error     { return &Error{Kind: KindNotFound, Op: op, Msg: msg} }
func invalid(op, msg string) error      { return &Error{Kind: KindInvalid, Op: op, Msg: msg} }
func conflict(op, msg string) error     { return &Error{Kind: KindConflict, Op: op, Msg: msg} }
func unauthorized(op, msg string) error { return &Error{Kind: KindUnauthorized, Op: op, Msg: msg} }

// createErr reports a unique-index collision on insert as a conflict
func createErr(op, msg string, err error) error {
	if isDuplicateKey(err) {
		return &Error{Kind: KindConflict, Op: op, Msg: msg, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isDuplicateKey also matches raw driver messages for dialects without
// error translation
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

// lookupErr turns gorm's not-found into KindNotFound and wraps anything else
func lookupErr(op, msg string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(op, msg)
	}
	return fmt.Errorf("%s: %w", op, err)
}
