// Package credential implements the password and token primitives the auth
// services are built on: a salted PBKDF2 hasher and a URL-safe random token
// codec. Both are pure; neither touches storage.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/Zulfatok/mael/internal/core/domain"
)

const (
	// SaltSize is the number of random bytes drawn for every password set.
	SaltSize = 16
	// KeySize is the PBKDF2 output length (256 bits).
	KeySize = 32

	// MinIterations and MaxIterations bound the accepted PBKDF2 work factor.
	// Counts outside the range are rejected, never silently clamped.
	MinIterations = 10_000
	MaxIterations = 100_000
)

// Hasher derives and verifies PBKDF2-HMAC-SHA256 password hashes with a
// configured default iteration count.
type Hasher struct {
	iterations int
}

// NewHasher returns a Hasher using the given default iteration count, or an
// error when the count is outside [MinIterations, MaxIterations].
func NewHasher(iterations int) (*Hasher, error) {
	if iterations < MinIterations || iterations > MaxIterations {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]",
			domain.ErrIterationsOutOfRange, iterations, MinIterations, MaxIterations)
	}
	return &Hasher{iterations: iterations}, nil
}

// Iterations returns the hasher's default iteration count.
func (h *Hasher) Iterations() int {
	return h.iterations
}

// NewSalt draws SaltSize cryptographically random bytes.
func (h *Hasher) NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// Derive computes the PBKDF2-HMAC-SHA256 hash of password with the given salt
// and iteration count. The count must fall inside the configured bounds.
func (h *Hasher) Derive(password string, salt []byte, iterations int) ([]byte, error) {
	if iterations < MinIterations || iterations > MaxIterations {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]",
			domain.ErrIterationsOutOfRange, iterations, MinIterations, MaxIterations)
	}
	return pbkdf2.Key([]byte(password), salt, iterations, KeySize, sha256.New), nil
}

// Verify recomputes the hash for password and compares it against expected in
// constant time. A derivation failure counts as a mismatch.
func (h *Hasher) Verify(password string, salt []byte, iterations int, expected []byte) bool {
	computed, err := h.Derive(password, salt, iterations)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(computed, expected) == 1
}
