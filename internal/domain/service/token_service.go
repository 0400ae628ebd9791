package service

import (
	"time"

	"github.com/google/uuid"
)

// TokenService defines the interface for issuing and verifying the two
// classes of signed tokens. Each class is signed with its own secret;
// verification failures are collapsed into a single error per class so the
// caller can't distinguish a forged token from an expired one.
type TokenService interface {
	// GenerateTokenPair creates a new access and refresh token for the account.
	GenerateTokenPair(userID uuid.UUID) (accessToken string, refreshToken string, err error)

	// VerifyAccessToken checks signature, expiry, and token class, returning
	// the account ID the token was issued for.
	VerifyAccessToken(tokenString string) (uuid.UUID, error)

	// VerifyRefreshToken is the refresh-class counterpart of VerifyAccessToken.
	VerifyRefreshToken(tokenString string) (uuid.UUID, error)

	// HashToken returns the hex SHA-256 digest of a raw token, the only form
	// in which refresh tokens are stored.
	HashToken(tokenString string) string

	// RefreshTokenDuration returns the configured refresh token lifetime.
	RefreshTokenDuration() time.Duration
}
