// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"roster/config"
	domainerrors "roster/internal/domain/errors"
	"roster/internal/domain/service"
)

const defaultMinPasswordLength = 6

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
type bcryptHasher struct {
	cost      int
	minLength int
}

// NewBcryptHasher is the constructor for bcryptHasher.
// It returns the implementation as a service.PasswordHasher interface.
func NewBcryptHasher(cfg *config.Config) service.PasswordHasher {
	cost := bcrypt.DefaultCost
	minLength := defaultMinPasswordLength
	if cfg != nil && cfg.Auth != nil {
		if cfg.Auth.BcryptCost >= bcrypt.MinCost && cfg.Auth.BcryptCost <= bcrypt.MaxCost {
			cost = cfg.Auth.BcryptCost
		}
		if cfg.Auth.MinPasswordLength > 0 {
			minLength = cfg.Auth.MinPasswordLength
		}
	}

	return &bcryptHasher{cost: cost, minLength: minLength}
}

// Hash generates a salted hash from a plaintext password using bcrypt.
// bcrypt handles salt generation, so equal inputs yield distinct digests.
func (h *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	return string(bytes), err
}

// Check compares a plaintext password with a bcrypt hash. bcrypt's compare
// is constant-time with respect to the digest; any failure, including a
// malformed digest, reports false.
func (h *bcryptHasher) Check(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	// err is nil if the password and hash match.
	return err == nil
}

// ValidatePassword enforces the registration password policy: minimum
// length and at least one digit.
func (h *bcryptHasher) ValidatePassword(password string) error {
	if len(password) < h.minLength {
		return domainerrors.ErrValidationFailed.WrapMessage("password is too short")
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= '0' && r <= '9' }) {
		return domainerrors.ErrValidationFailed.WrapMessage("password must contain at least one number")
	}

	return nil
}
