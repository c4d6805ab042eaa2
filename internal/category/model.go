package category

import (
	"time"

	"github.com/google/uuid"
)

// DefaultName is used when a category is added without a name.
const DefaultName = "New Category"

// Category represents a row in the categories table.
type Category struct {
	ID        uuid.UUID
	GameID    uuid.UUID
	Name      string
	CreatedAt time.Time
}
