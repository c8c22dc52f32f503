package models

import (
	"strings"
	"time"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleImam        UserRole = "imam"
	RoleParticipant UserRole = "participant"
)

// Valid returns true when the role is a supported value.
func (r UserRole) Valid() bool {
	return r == RoleImam || r == RoleParticipant
}

// CanParticipate reports whether the role may register for activities.
func (r UserRole) CanParticipate() bool {
	return r == RoleImam || r == RoleParticipant
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	PhoneNumber  string     `db:"phone_number" json:"phone_number"`
	Email        *string    `db:"email" json:"email,omitempty"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FirstName    string     `db:"first_name" json:"first_name"`
	MiddleName   string     `db:"middle_name" json:"middle_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// DisplayName resolves the human readable name with an explicit fallback to
// the phone number when no name is on record.
func (u User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return u.PhoneNumber
	}
	return name
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role   *UserRole
	Active *bool
	Search string
}
