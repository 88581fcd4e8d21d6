package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// saltBytes is the entropy of a freshly minted salt. Rendered as hex it is a
// fixed-width 16-character string.
const saltBytes = 8

// newSalt mints a random salt rendered as fixed-width hexadecimal.
func newSalt() (string, error) {
	var b [saltBytes]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("credential: salt generation: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// hashPassword computes hex(BLAKE2b-256(salt ++ password)).
func hashPassword(salt, password string) string {
	sum := blake2b.Sum256([]byte(salt + password))
	return hex.EncodeToString(sum[:])
}

// hashEqual compares two hex digests in constant time.
func hashEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
