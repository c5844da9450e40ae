// Package errs holds the error taxonomy shared by the relink packages.
//
// Errors are returned wrapped with github.com/pkg/errors, so callers match
// them with errors.Is against the sentinels below.
package errs

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidArgument is returned when a parameter is unusable, e.g. an empty path or a nil mapping.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a referenced directory or file does not exist at access time.
	ErrNotFound = errors.New("not found")

	// ErrFilesystemOperation is returned when removing or linking a file fails.
	ErrFilesystemOperation = errors.New("filesystem operation failed")
)

// InvalidArgument wraps ErrInvalidArgument with a formatted message.
func InvalidArgument(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}

// NotFound wraps ErrNotFound with a formatted message.
func NotFound(format string, args ...interface{}) error {
	return errors.Wrapf(ErrNotFound, format, args...)
}

// Filesystem wraps cause and marks it as ErrFilesystemOperation.
// The returned error matches both ErrFilesystemOperation and cause with errors.Is.
func Filesystem(cause error, format string, args ...interface{}) error {
	return &fsError{
		cause: cause,
		msg:   errors.Wrapf(ErrFilesystemOperation, format, args...).Error(),
	}
}

type fsError struct {
	cause error
	msg   string
}

func (e *fsError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *fsError) Is(target error) bool {
	return target == ErrFilesystemOperation
}

func (e *fsError) Unwrap() error {
	return e.cause
}
