package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/coursehub/campus-api/config"
)

// Hasher produces and verifies bcrypt credential hashes. The cost factor
// comes from configuration so environments (and tests) can tune it without
// touching callers.
type Hasher struct {
	cost int
}

func NewHasher(cfg config.AuthConfig) *Hasher {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash derives a salted one-way hash from a raw password. Two calls with the
// same input produce different outputs; both verify against the original.
func (h *Hasher) Hash(raw string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether raw produced the stored hash. A malformed stored
// hash reads as a mismatch, never an error, so callers cannot distinguish
// a corrupt record from a wrong password.
func (h *Hasher) Verify(raw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
