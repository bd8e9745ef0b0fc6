package accounts

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
)

// secretBytes is the entropy of single-use secrets: 32 bytes, 256 bits.
const secretBytes = 32

// NewSecret generates a single-use secret for email verification or password
// reset. Secrets are never derived from user input.
func NewSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// SecretsEqual compares two secrets in constant time relative to their
// length, so lookups cannot be used as a timing oracle.
func SecretsEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
