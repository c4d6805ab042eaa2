package auth

import (
	"time"

	"github.com/google/uuid"
)

// Roles a user may hold.
const (
	RolePlayer = "player"
	RoleAdmin  = "admin"
)

// User represents a row in the users table.
type User struct {
	ID           uuid.UUID
	Email        string
	Username     string
	PasswordHash string
	Role         string // "player" or "admin"
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Identity is stored in the request context after authentication.
type Identity struct {
	UserID    uuid.UUID
	Email     string
	Username  string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// IsAdmin reports whether the identity holds the admin role. A nil identity
// is an anonymous visitor.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// Session is the result of a successful login or registration. Token is the
// only value a client needs to keep.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RolePlayer || role == RoleAdmin
}
