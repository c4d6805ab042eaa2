package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/quizboard/quizboard/internal/api/middleware"
	"github.com/quizboard/quizboard/internal/api/response"
	"github.com/quizboard/quizboard/internal/api/validation"
	"github.com/quizboard/quizboard/internal/auth"
	"github.com/quizboard/quizboard/internal/authoring"
	"github.com/quizboard/quizboard/internal/category"
	"github.com/quizboard/quizboard/internal/game"
	"github.com/quizboard/quizboard/internal/question"
	"github.com/quizboard/quizboard/internal/storage"
)

// Authoring is the part of authoring.Service the HTTP layer uses.
type Authoring interface {
	CreateGame(ctx context.Context, owner *auth.Identity, in authoring.NewGame) (*authoring.Board, error)
	Board(ctx context.Context, viewer *auth.Identity, gameID uuid.UUID) (*authoring.Board, error)
	UpdateGame(ctx context.Context, viewer *auth.Identity, gameID uuid.UUID, changes authoring.GameChanges) (*game.Game, error)
	DeleteGame(ctx context.Context, viewer *auth.Identity, gameID uuid.UUID) error
	AddCategory(ctx context.Context, viewer *auth.Identity, gameID uuid.UUID, name string) (*category.Category, error)
	RenameCategory(ctx context.Context, viewer *auth.Identity, categoryID uuid.UUID, name string) (*category.Category, error)
	DeleteCategory(ctx context.Context, viewer *auth.Identity, categoryID uuid.UUID) error
	AddQuestion(ctx context.Context, viewer *auth.Identity, categoryID uuid.UUID, in authoring.NewQuestion) (*question.Question, error)
	UpdateQuestion(ctx context.Context, viewer *auth.Identity, questionID uuid.UUID, fields question.UpdateFields) (*question.Question, error)
	ReplaceQuestionImage(ctx context.Context, viewer *auth.Identity, questionID uuid.UUID, up storage.Upload) (*question.Question, error)
	DeleteQuestion(ctx context.Context, viewer *auth.Identity, questionID uuid.UUID) error
}

// GameLister fetches the full game catalog.
type GameLister interface {
	List(ctx context.Context) ([]game.Game, error)
}

type createGameRequest struct {
	Title      string   `json:"title"`
	Categories []string `json:"categories"`
	Visibility string   `json:"visibility"`
}

type updateGameRequest struct {
	Name       *string `json:"name,omitempty"`
	Visibility *string `json:"visibility,omitempty"`
	Status     *string `json:"status,omitempty"`
}

// GameHandler handles the game catalog and game CRUD endpoints.
type GameHandler struct {
	games     GameLister
	authoring Authoring
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(games GameLister, authoring Authoring) *GameHandler {
	return &GameHandler{
		games:     games,
		authoring: authoring,
	}
}

// List handles GET /games. Admins may pass ?all=true to include every
// private game.
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	showAll, _ := strconv.ParseBool(r.URL.Query().Get("all"))

	games, err := h.games.List(r.Context())
	if err != nil {
		writeError(w, err, "Failed to list games", requestID)
		return
	}

	visible := game.Visible(games, identity, showAll)
	items := make([]gameResponse, 0, len(visible))
	for i := range visible {
		items = append(items, toGameResponse(&visible[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}

// Create handles POST /games.
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	var req createGameRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}

	if validationFailed(w, validation.ValidateCreateGameRequest(validation.CreateGameRequest{
		Title:      req.Title,
		Categories: req.Categories,
		Visibility: req.Visibility,
	}), requestID) {
		return
	}

	board, err := h.authoring.CreateGame(r.Context(), identity, authoring.NewGame{
		Title:      req.Title,
		Categories: req.Categories,
		Visibility: req.Visibility,
	})
	if err != nil {
		writeError(w, err, "Failed to create game", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toBoardResponse(board, true), requestID)
}

// Get handles GET /games/{id}: the game with all its categories and questions.
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := urlID(w, r, "id", requestID)
	if !ok {
		return
	}

	board, err := h.authoring.Board(r.Context(), identity, id)
	if err != nil {
		writeError(w, err, "Failed to get game", requestID)
		return
	}

	response.Success(w, http.StatusOK, toBoardResponse(board, game.CanEdit(board.Game, identity)), requestID)
}

// Update handles PATCH /games/{id}.
func (h *GameHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := urlID(w, r, "id", requestID)
	if !ok {
		return
	}

	var req updateGameRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}

	if validationFailed(w, validation.ValidateUpdateGameRequest(validation.UpdateGameRequest{
		Name:       req.Name,
		Visibility: req.Visibility,
		Status:     req.Status,
	}), requestID) {
		return
	}

	g, err := h.authoring.UpdateGame(r.Context(), identity, id, authoring.GameChanges{
		Name:       req.Name,
		Visibility: req.Visibility,
		Status:     req.Status,
	})
	if err != nil {
		writeError(w, err, "Failed to update game", requestID)
		return
	}

	response.Success(w, http.StatusOK, toGameResponse(g), requestID)
}

// Delete handles DELETE /games/{id}.
func (h *GameHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := urlID(w, r, "id", requestID)
	if !ok {
		return
	}

	if err := h.authoring.DeleteGame(r.Context(), identity, id); err != nil {
		writeError(w, err, "Failed to delete game", requestID)
		return
	}

	response.NoContent(w)
}
