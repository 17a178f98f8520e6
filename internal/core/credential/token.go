package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// tokenBytes is the entropy drawn per token (256 bits).
const tokenBytes = 32

// NewToken returns a fresh random token in URL-safe, padding-free base64.
// The raw token is handed to the client (cookie or reset email) and must
// never be persisted; store Digest(token) instead.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Digest returns the SHA-256 hash of the token text, encoded the same way as
// the token itself. Deterministic and one-way; this is the stored form.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
