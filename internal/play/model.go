package play

import (
	"time"

	"github.com/google/uuid"
)

// ScoreStep is the only amount a team's score can move by in one adjustment.
const ScoreStep = 100

// Reveal stages.
const (
	StageQuestion = "question"
	StageAnswer   = "answer"
)

// Team is an ad-hoc scoreboard entry. Teams exist only inside a play session.
type Team struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Points int       `json:"points"`
}

// Reveal is the question currently shown to the room.
type Reveal struct {
	QuestionID uuid.UUID
	Stage      string
}

// Cell is one question slot on the board as seen by players.
type Cell struct {
	QuestionID uuid.UUID `json:"questionId"`
	Points     int       `json:"points"`
	Opened     bool      `json:"opened"`
}

// Column is one category on the board.
type Column struct {
	CategoryID uuid.UUID `json:"categoryId"`
	Name       string    `json:"name"`
	Cells      []Cell    `json:"cells"`
}

// RevealView is the open question. Answer is empty until the answer stage.
type RevealView struct {
	QuestionID uuid.UUID `json:"questionId"`
	Category   string    `json:"category"`
	Points     int       `json:"points"`
	Stage      string    `json:"stage"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer,omitempty"`
	ImageURL   *string   `json:"imageUrl,omitempty"`
}

// Snapshot is the full observable state of a play session. Version grows by
// one with every change to the session.
type Snapshot struct {
	SessionID  uuid.UUID   `json:"sessionId"`
	Version    uint64      `json:"version"`
	GameID     uuid.UUID   `json:"gameId"`
	GameName   string      `json:"gameName"`
	Columns    []Column    `json:"columns"`
	Teams      []Team      `json:"teams"`
	Current    *RevealView `json:"current"`
	LastActive time.Time   `json:"lastActive"`
}
