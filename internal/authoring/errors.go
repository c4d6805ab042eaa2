package authoring

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/quizboard/quizboard/internal/category"
	"github.com/quizboard/quizboard/internal/game"
)

// ErrForbidden is returned when the caller may see a game but not change it.
var ErrForbidden = errors.New("not allowed to modify this game")

// ErrAdminOnly is returned for changes only an admin may make, such as game status.
var ErrAdminOnly = errors.New("admin access required")

// ErrInvalidInput is returned when a request breaks a creation rule
// (empty title, no categories, too many categories, bad enum value).
var ErrInvalidInput = errors.New("invalid input")

// PartialCreateError reports a game whose row was inserted but whose
// categories were only partly inserted. Nothing is rolled back: Game and
// Persisted describe what exists.
type PartialCreateError struct {
	Game      *game.Game
	Persisted []category.Category
	Failed    string
	Err       error
}

func (e *PartialCreateError) Error() string {
	return fmt.Sprintf("game %s created with %d categories; inserting %q failed: %v",
		e.Game.ID, len(e.Persisted), e.Failed, e.Err)
}

func (e *PartialCreateError) Unwrap() error { return e.Err }

// Delete phases.
const (
	PhaseQuestions  = "questions"
	PhaseCategories = "categories"
	PhaseGame       = "game"
)

// PartialDeleteError reports a cascading delete that stopped part way.
// Every phase before FailedPhase has taken effect and is not undone; the
// target itself (a category or a game) still exists.
type PartialDeleteError struct {
	TargetID          uuid.UUID
	FailedPhase       string
	QuestionsDeleted  int
	CategoriesDeleted int
	Err               error
}

func (e *PartialDeleteError) Error() string {
	return fmt.Sprintf("delete of %s stopped at %s phase after removing %d questions and %d categories: %v",
		e.TargetID, e.FailedPhase, e.QuestionsDeleted, e.CategoriesDeleted, e.Err)
}

func (e *PartialDeleteError) Unwrap() error { return e.Err }
