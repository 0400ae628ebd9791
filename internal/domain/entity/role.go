// Package entity contains the core business objects of the project.
package entity

// Role represents the privilege level a user holds.
type Role string

const (
	// RoleUser indicates a regular user.
	RoleUser Role = "user"
	// RoleAdmin indicates an administrator.
	RoleAdmin Role = "admin"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// CanAssignRole reports whether an actor holding this role may change the
// role field of any account. Only administrators may.
func (r Role) CanAssignRole() bool {
	return r == RoleAdmin
}
