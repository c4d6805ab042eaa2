package game

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrGameNotFound is returned when a game record is not found.
var ErrGameNotFound = errors.New("game not found")

// ErrGameHasCategories is returned when deleting a game that still owns categories.
var ErrGameHasCategories = errors.New("game has categories")

// Repository provides CRUD operations on the games table.
type Repository interface {
	Create(ctx context.Context, g *Game) error
	GetByID(ctx context.Context, id uuid.UUID) (*Game, error)
	List(ctx context.Context) ([]Game, error)
	Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Game, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
