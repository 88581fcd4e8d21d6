package session

import "errors"

var (
	// ErrMintExhausted is returned when a freshly generated session id kept
	// colliding with live sessions. Inserting over a live session is never
	// silently tolerated.
	ErrMintExhausted = errors.New("session: could not mint a unique session id")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("session: invalid config")
)
