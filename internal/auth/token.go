package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// NewSessionToken returns an opaque bearer token with 256 bits of
// randomness, hex-encoded. Collisions are treated as practically
// impossible and not guarded against.
func NewSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
