// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"roster/internal/domain/entity"

	"github.com/google/uuid"
)

// Domain-specific errors for credential persistence.
var (
	// ErrCredentialNotFound is returned when no account matches the identifier.
	ErrCredentialNotFound = errors.New("credential not found")
	// ErrRefreshTokenMismatch is returned when a conditional rotation finds a
	// stored digest different from the expected one.
	ErrRefreshTokenMismatch = errors.New("stored refresh token does not match")
)

// CredentialRepository is the auth core's private read/write path. It is the
// only interface that surfaces password and refresh-token digests; nothing
// outside the session manager may depend on it.
type CredentialRepository interface {
	// FindByIdentifier retrieves the credential projection for a lowercased
	// email or verbatim phone number.
	FindByIdentifier(ctx context.Context, identifier string) (*entity.Credential, error)

	// FindByUserID retrieves the credential projection by account ID.
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Credential, error)

	// RotateRefreshToken overwrites the stored refresh token digest.
	//
	// When expectedOldHash is non-nil the write is conditional: it succeeds
	// only if the stored digest equals *expectedOldHash, and returns
	// ErrRefreshTokenMismatch otherwise. This compare-and-swap is the
	// linearization point for rotation; two racing refreshes presenting the
	// same digest see exactly one winner.
	//
	// A nil newHash clears the stored digest (logout).
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, expectedOldHash *string, newHash *string) error
}
