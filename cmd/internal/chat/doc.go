// Package chat is the single entry point composing the credential manager,
// the session store, and the storage port into the operations the request
// layer consumes.
//
// Every expected failure (missing user, wrong password, malformed session id,
// expired session, storage error) is reported as a typed error result; no
// operation panics into the caller for an expected condition.
package chat
