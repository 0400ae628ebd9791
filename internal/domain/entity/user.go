// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the core entity in the system, representing a unique account.
// It carries only fields that are safe to hand to any caller: password and
// refresh-token material live on Credential and never leave the auth core.
type User struct {
	ID           uuid.UUID // The unique identifier for the user, assigned at creation.
	Name         string    // The user's display name.
	Email        string    // Globally unique, stored lowercased, usable as a login identifier.
	Phone        string    // Globally unique, usable as a login identifier.
	Role         Role      // Privilege level; defaults to RoleUser.
	ProfileImage string    // Blob storage path of the profile image, empty when none was uploaded.
	Address      string
	State        string
	City         string
	Country      string
	Pincode      string
	CreatedAt    time.Time // Timestamp of when this account was created.
	UpdatedAt    time.Time // Timestamp of the last modification to this account.
}
