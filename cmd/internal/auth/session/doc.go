// Package session implements Relay's in-memory session table.
//
// A session is an opaque integer token minted on login and bound to one user.
// The table is authoritative and process-local: it does not survive a
// restart and is never shared across nodes. One exclusive lock guards the
// whole structure, so every operation is fully serialized against every
// other.
//
// The Reaper sweeps the table on a recurring interval and evicts sessions
// whose last activity is older than the configured idle TTL.
package session
