package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/quizboard/quizboard/internal/api/middleware"
	"github.com/quizboard/quizboard/internal/api/response"
	"github.com/quizboard/quizboard/internal/api/validation"
	"github.com/quizboard/quizboard/internal/auth"
	"github.com/quizboard/quizboard/internal/authoring"
	"github.com/quizboard/quizboard/internal/game"
)

// UserLister lists every user account.
type UserLister interface {
	List(ctx context.Context) ([]auth.User, error)
}

// RoleSetter changes one user's role.
type RoleSetter interface {
	SetRole(ctx context.Context, userID uuid.UUID, role string) (*auth.User, error)
}

// GameUpdater applies game field changes on behalf of a viewer.
type GameUpdater interface {
	UpdateGame(ctx context.Context, viewer *auth.Identity, gameID uuid.UUID, changes authoring.GameChanges) (*game.Game, error)
}

type roleRequest struct {
	Role string `json:"role"`
}

type adminGameRequest struct {
	Status     *string `json:"status,omitempty"`
	Visibility *string `json:"visibility,omitempty"`
}

// AdminHandler handles the admin console endpoints. Routes are expected to
// sit behind RequireAdmin.
type AdminHandler struct {
	users   UserLister
	roles   RoleSetter
	games   GameLister
	updater GameUpdater
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(users UserLister, roles RoleSetter, games GameLister, updater GameUpdater) *AdminHandler {
	return &AdminHandler{
		users:   users,
		roles:   roles,
		games:   games,
		updater: updater,
	}
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, err, "Failed to list users", requestID)
		return
	}

	items := make([]userResponse, 0, len(users))
	for i := range users {
		items = append(items, toUserResponse(&users[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}

// SetRole handles PATCH /admin/users/{id}/role. Only the target user changes.
func (h *AdminHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := urlID(w, r, "id", requestID)
	if !ok {
		return
	}

	var req roleRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}
	if validationFailed(w, validation.ValidateRole(req.Role), requestID) {
		return
	}

	u, err := h.roles.SetRole(r.Context(), id, req.Role)
	if err != nil {
		writeError(w, err, "Failed to update role", requestID)
		return
	}

	response.Success(w, http.StatusOK, toUserResponse(u), requestID)
}

// ListGames handles GET /admin/games: every game regardless of visibility.
func (h *AdminHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	games, err := h.games.List(r.Context())
	if err != nil {
		writeError(w, err, "Failed to list games", requestID)
		return
	}

	visible := game.Visible(games, identity, true)
	items := make([]gameResponse, 0, len(visible))
	for i := range visible {
		items = append(items, toGameResponse(&visible[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}

// UpdateGame handles PATCH /admin/games/{id} for status and visibility.
func (h *AdminHandler) UpdateGame(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := urlID(w, r, "id", requestID)
	if !ok {
		return
	}

	var req adminGameRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}
	if validationFailed(w, validation.ValidateUpdateGameRequest(validation.UpdateGameRequest{
		Visibility: req.Visibility,
		Status:     req.Status,
	}), requestID) {
		return
	}

	g, err := h.updater.UpdateGame(r.Context(), identity, id, authoring.GameChanges{
		Visibility: req.Visibility,
		Status:     req.Status,
	})
	if err != nil {
		writeError(w, err, "Failed to update game", requestID)
		return
	}

	response.Success(w, http.StatusOK, toGameResponse(g), requestID)
}
