// Package auth holds credential primitives for participants.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const saltLen = 32

var (
	// ErrPasswordMismatch is returned by Compare when the password does not
	// produce the stored hash.
	ErrPasswordMismatch = errors.New("password does not match")

	errEmptySalt = errors.New("salt is required")
)

// Hasher stores passwords as bcrypt(HMAC-SHA256(salt, password)).
// The keyed digest is 44 bytes once encoded, so any password length fits
// bcrypt's 72-byte input and salt/password boundaries cannot be shifted.
type Hasher struct {
	cost int
}

// NewBcryptHasher returns a Hasher with the given bcrypt cost.
// Costs outside bcrypt's accepted range fall back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// GenerateSalt returns a fresh random salt, base64 encoded.
func (h *Hasher) GenerateSalt() (string, error) {
	b := make([]byte, saltLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (h *Hasher) Hash(salt, password string) (string, error) {
	if salt == "" {
		return "", errEmptySalt
	}
	hash, err := bcrypt.GenerateFromPassword(digest(salt, password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Compare returns ErrPasswordMismatch for a wrong password. Any other error
// means the stored hash itself is unusable.
func (h *Hasher) Compare(hash, salt, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), digest(salt, password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return fmt.Errorf("failed to compare password: %w", err)
	}
}

func digest(salt, password string) []byte {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(password))
	sum := mac.Sum(nil)
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum)
	return out
}
