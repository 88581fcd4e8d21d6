// Package credential implements registration and login verification.
//
// Passwords are never stored or compared in plaintext: registration mints a
// random per-user salt and persists only hex(BLAKE2b-256(salt ++ password))
// next to the salt. Login recomputes the digest from the stored salt and
// compares in constant time.
//
// There is deliberately no rate limiting or lockout on repeated failures.
package credential
