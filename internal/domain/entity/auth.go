// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"github.com/google/uuid"
)

// Credential is the auth-core projection of an account. It is the only type
// through which password and refresh-token digests are read, and it is never
// returned past the session manager.
type Credential struct {
	UserID           uuid.UUID // The account this credential belongs to.
	Email            string    // Lowercased login identifier.
	Phone            string    // Alternate login identifier.
	Role             Role      // Stored role, embedded in authorization decisions.
	PasswordHash     string    // bcrypt digest of the password.
	RefreshTokenHash *string   // SHA-256 digest of the single currently-valid refresh token; nil before first login.
}

// Identity is a verified caller: the result of a successful access-token
// check plus an account existence lookup.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}
