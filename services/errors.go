package services

import (
	"errors"
	"fmt"

	"github.com/jai-platform/jai-api/meetings"
)

// Domain errors. Every returned error wraps exactly one of these and names the
// precondition that failed, e.g. "conflict: request is not pending".
var (
	ErrNotFound        = errors.New("not found")
	ErrPermission      = errors.New("permission denied")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("invalid credentials")
	ErrProvider        = meetings.ErrProvider
)

func notFound(format string, args ...interface{}) error {
	return wrap(ErrNotFound, format, args...)
}

func permission(format string, args ...interface{}) error {
	return wrap(ErrPermission, format, args...)
}

func conflict(format string, args ...interface{}) error {
	return wrap(ErrConflict, format, args...)
}

func invalid(format string, args ...interface{}) error {
	return wrap(ErrValidation, format, args...)
}

func wrap(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
