package migration

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFile is returned for files that break the naming or content rules.
	ErrInvalidFile = errors.New("invalid migration file")
	// ErrDuplicateVersion is returned when two files share a version number.
	ErrDuplicateVersion = errors.New("duplicate migration version")
	// ErrChecksumMismatch is returned when an applied migration was edited afterwards.
	ErrChecksumMismatch = errors.New("migration checksum mismatch")
	// ErrFailed wraps a statement failure inside a migration.
	ErrFailed = errors.New("migration execution failed")
)

// Error carries the version and operation that failed.
type Error struct {
	Version   int
	Path      string
	Operation string
	Err       error
}

func (e *Error) Error() string {
	if e.Version > 0 {
		return fmt.Sprintf("migration %03d (%s): %s: %v", e.Version, e.Path, e.Operation, e.Err)
	}
	return fmt.Sprintf("migration (%s): %s: %v", e.Path, e.Operation, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(version int, path, operation string, err error) *Error {
	return &Error{Version: version, Path: path, Operation: operation, Err: err}
}
