package validation

import (
	"fmt"
	"strings"

	"github.com/quizboard/quizboard/internal/authoring"
	"github.com/quizboard/quizboard/internal/game"
)

// CreateGameRequest mirrors the fields needed for create game validation.
type CreateGameRequest struct {
	Title      string
	Categories []string
	Visibility string
}

// ValidateCreateGameRequest validates a new game: a title and one to six
// category names.
func ValidateCreateGameRequest(req CreateGameRequest) []FieldError {
	var errs []FieldError

	errs = requireName(errs, "title", req.Title)

	switch n := len(req.Categories); {
	case n == 0:
		errs = append(errs, FieldError{Field: "categories", Message: "at least one category is required"})
	case n > authoring.MaxCategories:
		errs = append(errs, FieldError{Field: "categories", Message: fmt.Sprintf("at most %d categories are allowed", authoring.MaxCategories)})
	}
	for i, c := range req.Categories {
		errs = requireName(errs, fmt.Sprintf("categories[%d]", i), c)
	}

	if req.Visibility != "" && !game.ValidVisibility(req.Visibility) {
		errs = append(errs, FieldError{Field: "visibility", Message: "visibility must be public or private"})
	}

	return errs
}

// UpdateGameRequest mirrors the fields needed for update game validation.
// Nil fields are not being changed.
type UpdateGameRequest struct {
	Name       *string
	Visibility *string
	Status     *string
}

// ValidateUpdateGameRequest validates a partial game update.
func ValidateUpdateGameRequest(req UpdateGameRequest) []FieldError {
	var errs []FieldError

	if req.Name == nil && req.Visibility == nil && req.Status == nil {
		return []FieldError{{Field: "body", Message: "at least one of name, visibility or status is required"}}
	}
	if req.Name != nil {
		errs = requireName(errs, "name", *req.Name)
	}
	if req.Visibility != nil && !game.ValidVisibility(*req.Visibility) {
		errs = append(errs, FieldError{Field: "visibility", Message: "visibility must be public or private"})
	}
	if req.Status != nil && !game.ValidStatus(*req.Status) {
		errs = append(errs, FieldError{Field: "status", Message: "status must be active or inactive"})
	}

	return errs
}

// ValidateCategoryName validates a category rename. Empty names are only
// allowed when adding, where they fall back to a default.
func ValidateCategoryName(name string, allowEmpty bool) []FieldError {
	if allowEmpty && strings.TrimSpace(name) == "" {
		return nil
	}
	return requireName(nil, "name", name)
}
