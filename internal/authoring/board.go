package authoring

import (
	"github.com/google/uuid"

	"github.com/quizboard/quizboard/internal/category"
	"github.com/quizboard/quizboard/internal/game"
	"github.com/quizboard/quizboard/internal/question"
)

// Board is a game with its categories and their questions expanded.
type Board struct {
	Game       *game.Game
	Categories []CategoryQuestions
}

// CategoryQuestions is one category column of a board.
type CategoryQuestions struct {
	category.Category
	Questions []question.Question
}

// Question finds a question anywhere on the board.
func (b *Board) Question(id uuid.UUID) (*question.Question, bool) {
	for i := range b.Categories {
		for j := range b.Categories[i].Questions {
			if b.Categories[i].Questions[j].ID == id {
				return &b.Categories[i].Questions[j], true
			}
		}
	}
	return nil, false
}
