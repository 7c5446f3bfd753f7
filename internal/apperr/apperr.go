package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks malformed input: negative XP, an over-long title,
	// a transition out of a terminal task status.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStorageUnavailable marks a failed read or write against a store. The
	// caller may retry.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNotFound marks a referenced record or key that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyMigrated is returned by a migration that has nothing left to do.
	// It is not a failure.
	ErrAlreadyMigrated = errors.New("already migrated")

	// ErrMigrationPending marks a write to an account whose guest data has
	// not been migrated yet.
	ErrMigrationPending = errors.New("migration pending")
)

func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Unavailable wraps a driver error so that callers can match it with
// errors.Is(err, ErrStorageUnavailable) and still unwrap the cause.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", ErrStorageUnavailable, op, err)
}

// Pending wraps the migration failure that is blocking an account write.
func Pending(err error) error {
	return fmt.Errorf("%w: %w", ErrMigrationPending, err)
}
