package store

import (
	"errors"
	"fmt"
)

// ErrNotFound reports a missing row (unknown user, chat, or message target).
var ErrNotFound = errors.New("not found")

// StorageError wraps a driver-level failure with the failed operation name.
// The wrapped message is an opaque diagnostic; callers branch on the
// success/failure status only.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("store: %s failed", e.Op)
	}
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// storageErr wraps err as a *StorageError, passing *StorageError and
// ErrNotFound through untouched.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) || errors.Is(err, ErrNotFound) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsNotFound reports whether err represents a missing row.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
