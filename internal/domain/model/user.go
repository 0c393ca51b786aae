package model

import (
	"time"
)

// UserType is the coarse account classification driving default role assignment.
type UserType string

const (
	TypeGuest UserType = "GUEST"
	TypeUser  UserType = "USER"
	TypeAdmin UserType = "ADMIN"
)

// UserRole is a fine-grained permission tag checked by the auth middleware.
type UserRole string

const (
	RoleGuest UserRole = "ROLE_GUEST"
	RoleUser  UserRole = "ROLE_USER"
	RoleAdmin UserRole = "ROLE_ADMIN"
)

// RolesForType maps a user type to its default role set. Each type grants a
// superset of the previous one; every set contains ROLE_GUEST.
func RolesForType(userType UserType) []UserRole {
	roles := []UserRole{RoleGuest}

	if userType == TypeUser {
		roles = append(roles, RoleUser)
	}

	if userType == TypeAdmin {
		roles = append(roles, RoleUser, RoleAdmin)
	}

	return roles
}

// ContainsRole reports whether roles includes role.
func ContainsRole(roles []UserRole, role UserRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	Type           UserType   `json:"type"`
	Roles          []UserRole `json:"roles"`
	HashedPassword string     `json:"-"` // Not exposed
	Profile        *Profile   `json:"profile,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
