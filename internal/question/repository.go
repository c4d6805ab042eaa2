package question

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrQuestionNotFound is returned when a question record is not found.
var ErrQuestionNotFound = errors.New("question not found")

// Repository provides CRUD operations on the questions table.
type Repository interface {
	Create(ctx context.Context, q *Question) error
	GetByID(ctx context.Context, id uuid.UUID) (*Question, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]Question, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error)
	Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Question, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByCategory(ctx context.Context, categoryID uuid.UUID) (int, error)
}
