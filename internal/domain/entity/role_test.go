package entity

import "testing"

func TestRole_IsValid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{role: RoleUser, want: true},
		{role: RoleAdmin, want: true},
		{role: Role("superuser"), want: false},
		{role: Role(""), want: false},
	}

	for _, tt := range tests {
		if got := tt.role.IsValid(); got != tt.want {
			t.Errorf("Role(%q).IsValid() = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestRole_CanAssignRole(t *testing.T) {
	if RoleUser.CanAssignRole() {
		t.Error("regular users must not be able to assign roles")
	}
	if !RoleAdmin.CanAssignRole() {
		t.Error("admins must be able to assign roles")
	}
}
