package game

import (
	"time"

	"github.com/google/uuid"
)

// Visibility values.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Status values. Status is set by admins and does not affect visibility.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Game represents a row in the games table.
type Game struct {
	ID            uuid.UUID
	Name          string
	OwnerID       uuid.UUID
	OwnerName     string // joined from users
	Visibility    string // "public" or "private"
	Status        string // "active" or "inactive"
	CategoryCount int
	QuestionCount int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsPublic reports whether the game is visible to everyone.
func (g *Game) IsPublic() bool {
	return g.Visibility == VisibilityPublic
}

// UpdateFields holds mutable fields on a game record.
// Nil fields are not updated.
type UpdateFields struct {
	Name       *string
	Visibility *string
	Status     *string
}

// ValidVisibility reports whether v is a known visibility value.
func ValidVisibility(v string) bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// ValidStatus reports whether s is a known status value.
func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusInactive
}
