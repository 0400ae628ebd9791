// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"

	"roster/internal/domain/entity"
	"roster/internal/domain/repository"

	"github.com/google/uuid"
)

// ListUsersInput captures pagination, sorting, and filtering for the user list.
type ListUsersInput struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder repository.SortOrder
	Search    string
	State     string
	City      string
}

// Pagination describes the page of results that was returned.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// ListUsersOutput returns a page of users plus pagination metadata.
type ListUsersOutput struct {
	Users      []*entity.User
	Pagination Pagination
}

// UpdateUserInput is a partial update request. Nil fields are untouched.
// Role changes are silently dropped unless the actor is an administrator;
// the password is never updatable through this path.
type UpdateUserInput struct {
	Actor  entity.Identity
	UserID uuid.UUID

	Name         *string
	Email        *string
	Phone        *string
	Role         *string
	Address      *string
	State        *string
	City         *string
	Country      *string
	Pincode      *string
	ProfileImage *ImageUpload
}

// UserUsecase defines the interface for user management operations.
type UserUsecase interface {
	ListUsers(ctx context.Context, input *ListUsersInput) (*ListUsersOutput, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	UpdateUser(ctx context.Context, input *UpdateUserInput) (*entity.User, error)
	DeleteUser(ctx context.Context, actor entity.Identity, userID uuid.UUID) error
}
