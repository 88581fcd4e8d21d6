package chat

import (
	"errors"

	"relay/cmd/internal/auth/credential"
)

var (
	// ErrUserNotFound mirrors the credential manager's sentinel so callers
	// only ever import this package.
	ErrUserNotFound = credential.ErrUserNotFound

	// ErrInvalidCredentials is returned on a password mismatch.
	ErrInvalidCredentials = credential.ErrInvalidCredentials

	// ErrSessionNotFound is returned when an operation requires a live
	// session and none matches.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidInput is returned for malformed or empty required fields.
	ErrInvalidInput = errors.New("invalid input")
)
