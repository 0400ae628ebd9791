// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"roster/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrUserNotFound is a domain-specific error returned when a user is not found.
var ErrUserNotFound = errors.New("user not found")

// SortOrder is the direction of a list sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ListUsersQuery captures pagination, sorting, and filtering for the user list.
type ListUsersQuery struct {
	Page      int       // 1-based page number.
	Limit     int       // Page size.
	SortBy    string    // Column to sort on; the repository whitelists the value.
	SortOrder SortOrder // Ascending or descending.
	Search    string    // Case-insensitive match over name, email, state, city.
	State     string    // Case-insensitive state filter.
	City      string    // Case-insensitive city filter.
}

// UpdateUserFields is a partial update: nil fields are left untouched.
// The password is deliberately absent; it is only ever written through the
// auth core.
type UpdateUserFields struct {
	Name         *string
	Email        *string
	Phone        *string
	Role         *entity.Role
	ProfileImage *string
	Address      *string
	State        *string
	City         *string
	Country      *string
	Pincode      *string
}

// UserRepository defines the standard operations for user persistence.
// It is the general read path: implementations never expose password or
// refresh-token digests through this interface.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// List retrieves a page of users matching the query, plus the total count
	// of matching rows for pagination metadata.
	List(ctx context.Context, query ListUsersQuery) ([]*entity.User, int64, error)

	// Create persists a new user entity to the storage.
	Create(ctx context.Context, user *entity.User, passwordHash string) error

	// UpdateFields applies a partial update and returns the updated user.
	UpdateFields(ctx context.Context, id uuid.UUID, fields UpdateUserFields) (*entity.User, error)

	// Delete removes a user by ID.
	Delete(ctx context.Context, id uuid.UUID) error
}
