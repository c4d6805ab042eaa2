package validation

import (
	"strings"

	"github.com/quizboard/quizboard/internal/auth"
	"github.com/quizboard/quizboard/internal/play"
)

// ValidateTeamName validates a new team.
func ValidateTeamName(name string) []FieldError {
	name = strings.TrimSpace(name)
	if name == "" {
		return []FieldError{{Field: "name", Message: "name is required"}}
	}
	if len(name) > 50 {
		return []FieldError{{Field: "name", Message: "name must be at most 50 characters"}}
	}
	return nil
}

// ValidateScoreDelta validates a score adjustment.
func ValidateScoreDelta(delta int) []FieldError {
	if delta != play.ScoreStep && delta != -play.ScoreStep {
		return []FieldError{{Field: "delta", Message: "delta must be 100 or -100"}}
	}
	return nil
}

// ValidateRole validates an admin role change.
func ValidateRole(role string) []FieldError {
	if !auth.ValidRole(role) {
		return []FieldError{{Field: "role", Message: "role must be player or admin"}}
	}
	return nil
}
