package question

import (
	"time"

	"github.com/google/uuid"
)

// PointStep is the increment used for default point values: the n-th
// question added to a category defaults to n*PointStep.
const PointStep = 100

// Question represents a row in the questions table.
type Question struct {
	ID         uuid.UUID
	CategoryID uuid.UUID
	Question   string
	Answer     string
	Points     int
	ImageURL   *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DefaultPoints returns the point value for a question appended to a
// category that already holds existing questions. It is only a creation-time
// default; edits may set any value.
func DefaultPoints(existing int) int {
	return (existing + 1) * PointStep
}

// UpdateFields holds editable fields on a question record.
// Nil fields are not updated. A non-nil ImageURL pointing at "" clears the image.
type UpdateFields struct {
	Question *string
	Answer   *string
	Points   *int
	ImageURL *string
}
