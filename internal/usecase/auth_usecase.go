// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"roster/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// ImageUpload carries raw profile image bytes from the delivery layer.
type ImageUpload struct {
	Data        []byte
	ContentType string
}

// RegisterInput defines the data required to register a new account.
type RegisterInput struct {
	Name         string
	Email        string
	Phone        string
	Password     string
	Address      string
	State        string
	City         string
	Country      string
	Pincode      string
	ProfileImage *ImageUpload // Optional.
}

// LoginInput defines the data required to log in. Identifier is either an
// email address or a phone number.
type LoginInput struct {
	Identifier string
	Password   string
}

// RefreshTokenInput carries the raw refresh token presented by the client.
type RefreshTokenInput struct {
	RefreshToken string
}

// --- Output DTOs ---

// RegisterOutput returns the newly created account and its first token pair.
// RefreshExpiresIn is the refresh token lifetime in seconds, for clients that
// persist the token with a bounded expiry.
type RegisterOutput struct {
	User             *entity.User
	AccessToken      string
	RefreshToken     string
	RefreshExpiresIn int64
}

// LoginOutput returns the generated tokens after a successful login.
type LoginOutput struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresIn int64
	User             *entity.User
}

// RefreshTokenOutput returns the replacement token pair after rotation.
type RefreshTokenOutput struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresIn int64
}

// AuthUsecase defines the interface for the credential lifecycle:
// registration, login, refresh-token rotation, logout, and access-token
// verification. This is the contract the delivery layer depends on.
type AuthUsecase interface {
	Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error)
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)
	RefreshToken(ctx context.Context, input *RefreshTokenInput) (*RefreshTokenOutput, error)
	Logout(ctx context.Context, userID uuid.UUID) error

	// Authorize verifies a raw access token and resolves it to a live
	// account. Every failure mode maps to the same unauthenticated error.
	Authorize(ctx context.Context, accessToken string) (*entity.Identity, error)
}
