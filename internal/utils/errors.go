package utils

import (
	"errors"
	"fmt"
)

// Kind classifies an AppError for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindUnavailable
)

// AppError wraps an operation, human-facing message, and underlying error.
type AppError struct {
	Op   string
	Kind Kind
	Msg  string
	Err  error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError constructs an internal AppError.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Kind: KindInternal, Msg: msg, Err: err}
}

// InvalidArgument constructs an AppError for a rejected caller input.
func InvalidArgument(op, msg string) error {
	return &AppError{Op: op, Kind: KindInvalidArgument, Msg: msg}
}

// Unavailable constructs an AppError for a dependency that cannot serve.
func Unavailable(op, msg string, err error) error {
	return &AppError{Op: op, Kind: KindUnavailable, Msg: msg, Err: err}
}

// KindOf returns the kind of the first AppError in err's chain.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
