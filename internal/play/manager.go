// Package play runs games in a room: a board of questions that can be opened
// and revealed, and a scoreboard of ad-hoc teams. All state is in memory and
// disappears when a session ends or the process restarts.
package play

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quizboard/quizboard/internal/authoring"
)

var (
	// ErrSessionNotFound is returned for unknown or discarded session IDs.
	ErrSessionNotFound = errors.New("play session not found")
	// ErrQuestionNotOnBoard is returned when selecting a question from another game.
	ErrQuestionNotOnBoard = errors.New("question is not on this board")
	// ErrNoOpenQuestion is returned when toggling with nothing selected.
	ErrNoOpenQuestion = errors.New("no question is open")
	// ErrTeamNotFound is returned for unknown team IDs.
	ErrTeamNotFound = errors.New("team not found")
	// ErrInvalidTeamName is returned for blank team names.
	ErrInvalidTeamName = errors.New("team name is required")
	// ErrInvalidDelta is returned for score changes other than +100 or -100.
	ErrInvalidDelta = errors.New("score can only change by 100 points")
	// ErrTooManySessions is returned by Start when the session cap is reached.
	ErrTooManySessions = errors.New("too many running play sessions")
)

// Publisher receives a session's snapshot after every change, and is told
// when a session goes away. Publish is called with the session locked, so
// snapshots of one session arrive in version order and must not block.
type Publisher interface {
	Publish(snap Snapshot)
	Closed(sessionID uuid.UUID)
}

// Session is one running game.
type Session struct {
	ID         uuid.UUID
	GameID     uuid.UUID
	Board      *authoring.Board
	Teams      []Team
	Opened     map[uuid.UUID]bool
	Current    *Reveal
	LastActive time.Time
	Version    uint64

	mu sync.Mutex
}

// Manager holds the running play sessions.
type Manager struct {
	mu          sync.Mutex
	sessions    map[uuid.UUID]*Session
	pub         Publisher
	now         func() time.Time
	maxSessions int
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxSessions caps the number of sessions running at once. Zero or less
// means no cap.
func WithMaxSessions(n int) Option {
	return func(m *Manager) { m.maxSessions = n }
}

// NewManager creates a Manager. pub may be nil.
func NewManager(pub Publisher, opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[uuid.UUID]*Session),
		pub:      pub,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start opens a new session over a loaded board. The board is a copy taken
// at start; later edits to the game do not reach a running session.
func (m *Manager) Start(board *authoring.Board) (Snapshot, error) {
	s := &Session{
		ID:         uuid.New(),
		GameID:     board.Game.ID,
		Board:      board,
		Teams:      []Team{},
		Opened:     make(map[uuid.UUID]bool),
		LastActive: m.now(),
		Version:    1,
	}

	snap := s.snapshot()

	m.mu.Lock()
	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		m.mu.Unlock()
		slog.Warn("play session cap reached", "max", m.maxSessions, "gameId", s.GameID)
		return Snapshot{}, ErrTooManySessions
	}
	m.sessions[s.ID] = s
	m.mu.Unlock()

	slog.Info("play session started", "sessionId", s.ID, "gameId", s.GameID)
	return snap, nil
}

// Get returns the current snapshot of a session.
func (m *Manager) Get(id uuid.UUID) (Snapshot, error) {
	s, err := m.session(id)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

// End discards a session and its teams.
func (m *Manager) End(id uuid.UUID) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	slog.Info("play session ended", "sessionId", id)
	if m.pub != nil {
		m.pub.Closed(id)
	}
	return nil
}

// Len returns the number of running sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Select opens a question in the question stage. Questions already opened
// may be selected again.
func (m *Manager) Select(id, questionID uuid.UUID) (Snapshot, error) {
	return m.mutate(id, func(s *Session) error {
		if _, ok := s.Board.Question(questionID); !ok {
			return ErrQuestionNotOnBoard
		}
		s.Opened[questionID] = true
		s.Current = &Reveal{QuestionID: questionID, Stage: StageQuestion}
		return nil
	})
}

// ToggleAnswer flips the open question between its question and answer stages.
func (m *Manager) ToggleAnswer(id uuid.UUID) (Snapshot, error) {
	return m.mutate(id, func(s *Session) error {
		if s.Current == nil {
			return ErrNoOpenQuestion
		}
		if s.Current.Stage == StageQuestion {
			s.Current.Stage = StageAnswer
		} else {
			s.Current.Stage = StageQuestion
		}
		return nil
	})
}

// CloseQuestion returns the room to the board.
func (m *Manager) CloseQuestion(id uuid.UUID) (Snapshot, error) {
	return m.mutate(id, func(s *Session) error {
		s.Current = nil
		return nil
	})
}

// AddTeam adds a team with zero points.
func (m *Manager) AddTeam(id uuid.UUID, name string) (Snapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Snapshot{}, ErrInvalidTeamName
	}
	return m.mutate(id, func(s *Session) error {
		s.Teams = append(s.Teams, Team{ID: uuid.New(), Name: name})
		return nil
	})
}

// AdjustScore moves a team's points by +100 or -100. Scores may go negative.
func (m *Manager) AdjustScore(id, teamID uuid.UUID, delta int) (Snapshot, error) {
	if delta != ScoreStep && delta != -ScoreStep {
		return Snapshot{}, ErrInvalidDelta
	}
	return m.mutate(id, func(s *Session) error {
		for i := range s.Teams {
			if s.Teams[i].ID == teamID {
				s.Teams[i].Points += delta
				return nil
			}
		}
		return ErrTeamNotFound
	})
}

// RemoveTeam drops a team from the scoreboard.
func (m *Manager) RemoveTeam(id, teamID uuid.UUID) (Snapshot, error) {
	return m.mutate(id, func(s *Session) error {
		for i := range s.Teams {
			if s.Teams[i].ID == teamID {
				s.Teams = append(s.Teams[:i], s.Teams[i+1:]...)
				return nil
			}
		}
		return ErrTeamNotFound
	})
}

// sweep discards sessions idle since before cutoff and returns how many went.
func (m *Manager) sweep(cutoff time.Time) int {
	var expired []uuid.UUID

	m.mu.Lock()
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.LastActive.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			expired = append(expired, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		slog.Info("play session expired", "sessionId", id)
		if m.pub != nil {
			m.pub.Closed(id)
		}
	}
	return len(expired)
}

func (m *Manager) session(id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) mutate(id uuid.UUID, fn func(s *Session) error) (Snapshot, error) {
	s, err := m.session(id)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s); err != nil {
		return Snapshot{}, err
	}
	s.LastActive = m.now()
	s.Version++
	snap := s.snapshot()

	if m.pub != nil {
		m.pub.Publish(snap)
	}
	return snap, nil
}

// snapshot must be called with s.mu held, or before s is shared.
func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		SessionID:  s.ID,
		Version:    s.Version,
		GameID:     s.GameID,
		GameName:   s.Board.Game.Name,
		Columns:    make([]Column, 0, len(s.Board.Categories)),
		Teams:      append([]Team(nil), s.Teams...),
		LastActive: s.LastActive,
	}
	if snap.Teams == nil {
		snap.Teams = []Team{}
	}

	for _, c := range s.Board.Categories {
		col := Column{CategoryID: c.ID, Name: c.Name, Cells: make([]Cell, 0, len(c.Questions))}
		for _, q := range c.Questions {
			col.Cells = append(col.Cells, Cell{QuestionID: q.ID, Points: q.Points, Opened: s.Opened[q.ID]})
			if s.Current != nil && s.Current.QuestionID == q.ID {
				view := &RevealView{
					QuestionID: q.ID,
					Category:   c.Name,
					Points:     q.Points,
					Stage:      s.Current.Stage,
					Question:   q.Question,
					ImageURL:   q.ImageURL,
				}
				if s.Current.Stage == StageAnswer {
					view.Answer = q.Answer
				}
				snap.Current = view
			}
		}
		snap.Columns = append(snap.Columns, col)
	}
	return snap
}
