package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrForeignKey is returned when a referenced row is missing.
	ErrForeignKey = errors.New("persistence: foreign key violation")
	// ErrConstraintViolation is returned for check or not-null failures.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
