package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	apperrors "github.com/KartikGSparrow/AuthAppWithTasks/pkg/errors"
)

const (
	// SaltLength is the fixed salt size in bytes.
	SaltLength = 16

	// keyLength is the derived key size in bytes.
	keyLength = 32

	// DefaultIterations is the PBKDF2-HMAC-SHA256 iteration count used when
	// none is configured.
	DefaultIterations = 210_000
)

// Hasher derives and verifies salted credential hashes with
// PBKDF2-HMAC-SHA256. It is used for both passwords and refresh tokens.
// A Hasher is safe for concurrent use.
type Hasher struct {
	iterations int
}

// NewHasher creates a Hasher with the given iteration count. Counts below
// one fall back to DefaultIterations.
func NewHasher(iterations int) *Hasher {
	if iterations < 1 {
		iterations = DefaultIterations
	}
	return &Hasher{iterations: iterations}
}

// GenerateSalt returns SaltLength cryptographically random bytes.
func (h *Hasher) GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// Hash derives the salted hash of the given secret. An empty secret or a salt
// of the wrong length is rejected: silently hashing an empty credential would
// make it a valid one.
func (h *Hasher) Hash(secret string, salt []byte) ([]byte, error) {
	if secret == "" {
		return nil, apperrors.InvalidInput("secret must not be empty")
	}
	if len(salt) != SaltLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("salt must be %d bytes, got %d", SaltLength, len(salt)))
	}

	return pbkdf2.Key([]byte(secret), salt, h.iterations, keyLength, sha256.New), nil
}

// Verify recomputes the hash for the secret and compares it to the expected
// value in constant time.
func (h *Hasher) Verify(secret string, salt, expected []byte) (bool, error) {
	computed, err := h.Hash(secret, salt)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
