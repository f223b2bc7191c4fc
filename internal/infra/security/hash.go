package security

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"hash"

	"golang.org/x/crypto/pbkdf2"
)

const saltLength = 16

// HasherConfig defines the iterated hash parameters. They are fixed once at
// startup; stored digests are only verifiable under the parameters they were
// created with.
type HasherConfig struct {
	Algorithm  string
	Iterations int
	KeyLength  int
}

// DefaultHasherConfig returns SHA-256 with 1000 iterations, matching the
// parameters the stored user records were produced with.
func DefaultHasherConfig() HasherConfig {
	return HasherConfig{
		Algorithm:  "sha256",
		Iterations: 1000,
		KeyLength:  32,
	}
}

// Hasher derives and verifies salted password digests using PBKDF2. Immutable
// after construction and safe for concurrent use.
type Hasher struct {
	newHash    func() hash.Hash
	iterations int
	keyLength  int
}

// NewHasher validates the configuration and constructs a Hasher.
func NewHasher(cfg HasherConfig) (*Hasher, error) {
	if cfg.Iterations < 1 {
		return nil, fmt.Errorf("hasher: iterations must be positive, got %d", cfg.Iterations)
	}
	if cfg.KeyLength < 16 {
		return nil, fmt.Errorf("hasher: key length must be at least 16 bytes, got %d", cfg.KeyLength)
	}

	var newHash func() hash.Hash
	switch cfg.Algorithm {
	case "sha1":
		newHash = sha1.New
	case "sha256":
		newHash = sha256.New
	case "sha512":
		newHash = sha512.New
	default:
		return nil, fmt.Errorf("hasher: unsupported algorithm %q", cfg.Algorithm)
	}

	return &Hasher{
		newHash:    newHash,
		iterations: cfg.Iterations,
		keyLength:  cfg.KeyLength,
	}, nil
}

// Hash derives the hex-encoded digest of the password under the given salt.
func (h *Hasher) Hash(password, salt string) string {
	sum := pbkdf2.Key([]byte(password), []byte(salt), h.iterations, h.keyLength, h.newHash)
	return hex.EncodeToString(sum)
}

// GenerateSalt returns a fresh 128-bit salt as a lowercase hex string, sourced
// from crypto/rand.
func (h *Hasher) GenerateSalt() (string, error) {
	buf := make([]byte, saltLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("hasher: generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Verify recomputes the digest and compares it to the stored one in constant
// time.
func (h *Hasher) Verify(password, salt, storedDigest string) bool {
	if storedDigest == "" {
		return false
	}
	computed := h.Hash(password, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedDigest)) == 1
}
