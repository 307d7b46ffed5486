package tasks

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("task not found")
	ErrDeleted          = errors.New("task is in the trash")
	ErrNoHistory        = errors.New("task has no history")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrPersist          = errors.New("persist tasks")
	ErrCorrupt          = errors.New("corrupt task data")
)

// Error carries the kind of a store failure and the task it concerns.
type Error struct {
	Kind error
	ID   int64
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.ID != 0 {
		msg = fmt.Sprintf("%s: id %d", msg, e.ID)
	}
	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func notFound(id int64) error {
	return &Error{Kind: ErrNotFound, ID: id}
}

func deleted(id int64) error {
	return &Error{Kind: ErrDeleted, ID: id, Msg: "restore it first"}
}

func invalidf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

// Corruptf reports a malformed persisted collection. Persisters use it from Load.
func Corruptf(err error, format string, args ...any) error {
	return &Error{Kind: ErrCorrupt, Msg: fmt.Sprintf(format, args...), Err: err}
}

func persistFailed(err error) error {
	return &Error{Kind: ErrPersist, Err: err}
}
