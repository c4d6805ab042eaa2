package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/quizboard/quizboard/internal/api/middleware"
	"github.com/quizboard/quizboard/internal/api/response"
	"github.com/quizboard/quizboard/internal/api/validation"
	"github.com/quizboard/quizboard/internal/auth"
	"github.com/quizboard/quizboard/internal/authoring"
	"github.com/quizboard/quizboard/internal/play"
)

// BoardLoader loads a game board the viewer may see.
type BoardLoader interface {
	Board(ctx context.Context, viewer *auth.Identity, gameID uuid.UUID) (*authoring.Board, error)
}

// SnapshotStreamer pushes live session snapshots to a websocket client,
// starting with the one current returns.
type SnapshotStreamer interface {
	Serve(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID, current func() (play.Snapshot, error)) error
}

type addTeamRequest struct {
	Name string `json:"name"`
}

type scoreRequest struct {
	Delta int `json:"delta"`
}

type selectRequest struct {
	QuestionID string `json:"questionId"`
}

// PlayHandler handles running a game: the board, the reveal flow and the
// team scoreboard. Sessions are addressed only by their unguessable ID.
type PlayHandler struct {
	boards   BoardLoader
	sessions *play.Manager
	stream   SnapshotStreamer
}

// NewPlayHandler creates a new PlayHandler.
func NewPlayHandler(boards BoardLoader, sessions *play.Manager, stream SnapshotStreamer) *PlayHandler {
	return &PlayHandler{
		boards:   boards,
		sessions: sessions,
		stream:   stream,
	}
}

// Start handles POST /games/{id}/play.
func (h *PlayHandler) Start(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	gameID, ok := urlID(w, r, "id", requestID)
	if !ok {
		return
	}

	board, err := h.boards.Board(r.Context(), identity, gameID)
	if err != nil {
		writeError(w, err, "Failed to load game", requestID)
		return
	}

	snap, err := h.sessions.Start(board)
	if err != nil {
		writeError(w, err, "Failed to start play session", requestID)
		return
	}

	response.Success(w, http.StatusCreated, snap, requestID)
}

// Get handles GET /play/{sid}.
func (h *PlayHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	sid, ok := urlID(w, r, "sid", requestID)
	if !ok {
		return
	}

	snap, err := h.sessions.Get(sid)
	if err != nil {
		writeError(w, err, "Failed to get play session", requestID)
		return
	}

	response.Success(w, http.StatusOK, snap, requestID)
}

// End handles DELETE /play/{sid}. Teams and scores are discarded.
func (h *PlayHandler) End(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	sid, ok := urlID(w, r, "sid", requestID)
	if !ok {
		return
	}

	if err := h.sessions.End(sid); err != nil {
		writeError(w, err, "Failed to end play session", requestID)
		return
	}

	response.NoContent(w)
}

// AddTeam handles POST /play/{sid}/teams.
func (h *PlayHandler) AddTeam(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	sid, ok := urlID(w, r, "sid", requestID)
	if !ok {
		return
	}

	var req addTeamRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}
	if validationFailed(w, validation.ValidateTeamName(req.Name), requestID) {
		return
	}

	snap, err := h.sessions.AddTeam(sid, req.Name)
	h.respond(w, snap, err, http.StatusCreated, "Failed to add team", requestID)
}

// RemoveTeam handles DELETE /play/{sid}/teams/{tid}.
func (h *PlayHandler) RemoveTeam(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	sid, ok := urlID(w, r, "sid", requestID)
	if !ok {
		return
	}
	tid, ok := urlID(w, r, "tid", requestID)
	if !ok {
		return
	}

	snap, err := h.sessions.RemoveTeam(sid, tid)
	h.respond(w, snap, err, http.StatusOK, "Failed to remove team", requestID)
}

// AdjustScore handles POST /play/{sid}/teams/{tid}/score with {"delta": 100|-100}.
func (h *PlayHandler) AdjustScore(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	sid, ok := urlID(w, r, "sid", requestID)
	if !ok {
		return
	}
	tid, ok := urlID(w, r, "tid", requestID)
	if !ok {
		return
	}

	var req scoreRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}
	if validationFailed(w, validation.ValidateScoreDelta(req.Delta), requestID) {
		return
	}

	snap, err := h.sessions.AdjustScore(sid, tid, req.Delta)
	h.respond(w, snap, err, http.StatusOK, "Failed to adjust score", requestID)
}

// Select handles POST /play/{sid}/select.
func (h *PlayHandler) Select(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	sid, ok := urlID(w, r, "sid", requestID)
	if !ok {
		return
	}

	var req selectRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}
	if validationFailed(w, validation.ValidateID("questionId", req.QuestionID), requestID) {
		return
	}
	qid, _ := uuid.Parse(req.QuestionID) // already validated

	snap, err := h.sessions.Select(sid, qid)
	h.respond(w, snap, err, http.StatusOK, "Failed to select question", requestID)
}

// Toggle handles POST /play/{sid}/toggle.
func (h *PlayHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	sid, ok := urlID(w, r, "sid", requestID)
	if !ok {
		return
	}

	snap, err := h.sessions.ToggleAnswer(sid)
	h.respond(w, snap, err, http.StatusOK, "Failed to toggle answer", requestID)
}

// Close handles POST /play/{sid}/close.
func (h *PlayHandler) Close(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	sid, ok := urlID(w, r, "sid", requestID)
	if !ok {
		return
	}

	snap, err := h.sessions.CloseQuestion(sid)
	h.respond(w, snap, err, http.StatusOK, "Failed to close question", requestID)
}

// Stream handles GET /play/{sid}/ws, upgrading to a websocket that receives
// a snapshot after every change.
func (h *PlayHandler) Stream(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	sid, ok := urlID(w, r, "sid", requestID)
	if !ok {
		return
	}

	if _, err := h.sessions.Get(sid); err != nil {
		writeError(w, err, "Failed to get play session", requestID)
		return
	}

	// Upgrade writes its own error response on failure.
	current := func() (play.Snapshot, error) { return h.sessions.Get(sid) }
	if err := h.stream.Serve(w, r, sid, current); err != nil {
		slog.Warn("websocket upgrade failed", "error", err, "sessionId", sid)
	}
}

func (h *PlayHandler) respond(w http.ResponseWriter, snap play.Snapshot, err error, status int, action, requestID string) {
	if err != nil {
		writeError(w, err, action, requestID)
		return
	}
	response.Success(w, status, snap, requestID)
}
