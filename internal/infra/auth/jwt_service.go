// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"roster/config"
	domainerrors "roster/internal/domain/errors"
	"roster/internal/domain/service"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = time.Hour * 24 * 7
)

// tokenClaims are the claims carried by both token classes. The type claim
// keeps an access token from being replayed as a refresh token and vice versa.
type tokenClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
type jwtService struct {
	accessSecret  string        // Secret key for signing access tokens.
	refreshSecret string        // Secret key for signing refresh tokens.
	accessTTL     time.Duration // Time-to-live for access tokens.
	refreshTTL    time.Duration // Time-to-live for refresh tokens.
}

// NewJWTService is the constructor for jwtService. A missing secret is a
// startup failure, never a silent fallback.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.Access == "" || cfg.SecretKey.Refresh == "" {
		return nil, errors.New("jwt secrets must be provided")
	}

	accessTTL := defaultAccessTTL
	refreshTTL := defaultRefreshTTL
	if cfg.Auth != nil {
		if cfg.Auth.AccessTokenTTL > 0 {
			accessTTL = cfg.Auth.AccessTokenTTL
		}
		if cfg.Auth.RefreshTokenTTL > 0 {
			refreshTTL = cfg.Auth.RefreshTokenTTL
		}
	}

	return &jwtService{
		accessSecret:  cfg.SecretKey.Access,
		refreshSecret: cfg.SecretKey.Refresh,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// GenerateTokenPair creates a new access token and refresh token for a given account.
func (s *jwtService) GenerateTokenPair(userID uuid.UUID) (accessToken string, refreshToken string, err error) {
	accessToken, err = s.generateToken(userID, s.accessTTL, s.accessSecret, tokenTypeAccess)
	if err != nil {
		return "", "", err
	}

	refreshToken, err = s.generateToken(userID, s.refreshTTL, s.refreshSecret, tokenTypeRefresh)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// VerifyAccessToken checks the access token and returns the subject account ID.
func (s *jwtService) VerifyAccessToken(tokenString string) (uuid.UUID, error) {
	return s.verifyToken(tokenString, s.accessSecret, tokenTypeAccess, domainerrors.ErrUnauthenticated)
}

// VerifyRefreshToken checks the refresh token and returns the subject account ID.
func (s *jwtService) VerifyRefreshToken(tokenString string) (uuid.UUID, error) {
	return s.verifyToken(tokenString, s.refreshSecret, tokenTypeRefresh, domainerrors.ErrRefreshTokenInvalid)
}

// HashToken returns the hex SHA-256 digest of a raw token string.
func (s *jwtService) HashToken(tokenString string) string {
	sum := sha256.Sum256([]byte(tokenString))

	return hex.EncodeToString(sum[:])
}

// RefreshTokenDuration returns the configured duration for refresh tokens.
func (s *jwtService) RefreshTokenDuration() time.Duration {
	return s.refreshTTL
}

// generateToken is a private helper to create a JWT with specific claims.
func (s *jwtService) generateToken(userID uuid.UUID, ttl time.Duration, secret, tokenType string) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			// Unique per token: two tokens issued in the same second must
			// still hash to different digests, or rotation can't tell the
			// replaced token from its replacement.
			ID: uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(secret))
}

// verifyToken parses and validates a token against a secret and expected
// class. Every failure mode (bad signature, expiry, wrong class, malformed
// subject) collapses into uniformErr so callers can't probe which check
// tripped.
func (s *jwtService) verifyToken(tokenString, secret, tokenType string, uniformErr *domainerrors.BaseError) (uuid.UUID, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, uniformErr.WrapMessage("token verification failed")
	}

	if claims.Type != tokenType {
		return uuid.Nil, uniformErr.WrapMessage("unexpected token type")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, uniformErr.WrapMessage("malformed token subject")
	}

	return userID, nil
}
