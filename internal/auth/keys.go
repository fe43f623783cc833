package auth

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// keySize is the length of derived HMAC keys: 32 bytes matches SHA-256.
const keySize = 32

// deriveKey stretches the operator-supplied secret into a fixed-size key
// bound to one purpose.
//
// WHY HKDF?
// SESSION_SECRET is whatever string the operator typed, of any length and
// uneven randomness. HKDF (RFC 5869) turns it into uniformly random key
// material, and the purpose label gives each use its own key, so a token
// signed for one purpose never verifies for another.
func deriveKey(secret, purpose string) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("click-counter/"+purpose))

	key := make([]byte, keySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("auth: deriving %s key: %w", purpose, err)
	}
	return key, nil
}
