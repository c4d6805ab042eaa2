package category

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrCategoryNotFound is returned when a category record is not found.
var ErrCategoryNotFound = errors.New("category not found")

// ErrCategoryHasQuestions is returned when deleting a category that still owns questions.
var ErrCategoryHasQuestions = errors.New("category has questions")

// Repository provides CRUD operations on the categories table.
type Repository interface {
	Create(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*Category, error)
	ListByGame(ctx context.Context, gameID uuid.UUID) ([]Category, error)
	Rename(ctx context.Context, id uuid.UUID, name string) (*Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
