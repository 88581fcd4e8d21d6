package credential

import "errors"

var (
	// ErrUserNotFound is returned when the login target does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned when the supplied password does not
	// match the stored digest.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
