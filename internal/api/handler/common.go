package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quizboard/quizboard/internal/api/response"
	"github.com/quizboard/quizboard/internal/api/validation"
	"github.com/quizboard/quizboard/internal/auth"
	"github.com/quizboard/quizboard/internal/authoring"
	"github.com/quizboard/quizboard/internal/category"
	"github.com/quizboard/quizboard/internal/game"
	"github.com/quizboard/quizboard/internal/play"
	"github.com/quizboard/quizboard/internal/question"
	"github.com/quizboard/quizboard/internal/storage"
)

const (
	timeFormat   = "2006-01-02T15:04:05Z"
	maxJSONBytes = 1 << 20
)

// decodeJSON reads a size-limited JSON body into dst. On failure it writes
// the error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, requestID string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return false
	}
	return true
}

// urlID parses the named chi URL parameter as a UUID. On failure it writes
// the error response and returns false.
func urlID(w http.ResponseWriter, r *http.Request, param, requestID string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", param+" must be a valid UUID", requestID)
		return uuid.Nil, false
	}
	return id, true
}

func validationFailed(w http.ResponseWriter, errs []validation.FieldError, requestID string) bool {
	if len(errs) == 0 {
		return false
	}
	response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", errs, requestID)
	return true
}

type partialCreateDetails struct {
	GameID              string   `json:"gameId"`
	PersistedCategories []string `json:"persistedCategories"`
	FailedCategory      string   `json:"failedCategory"`
}

type partialDeleteDetails struct {
	TargetID          string `json:"targetId"`
	FailedPhase       string `json:"failedPhase"`
	QuestionsDeleted  int    `json:"questionsDeleted"`
	CategoriesDeleted int    `json:"categoriesDeleted"`
}

// writeError maps service and repository errors onto the response envelope.
// action completes the generic 500 message, e.g. "Failed to delete game".
func writeError(w http.ResponseWriter, err error, action, requestID string) {
	var partialCreate *authoring.PartialCreateError
	var partialDelete *authoring.PartialDeleteError

	switch {
	case errors.Is(err, game.ErrGameNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Game not found", requestID)
	case errors.Is(err, category.ErrCategoryNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Category not found", requestID)
	case errors.Is(err, question.ErrQuestionNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Question not found", requestID)
	case errors.Is(err, auth.ErrUserNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
	case errors.Is(err, play.ErrSessionNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Play session not found", requestID)
	case errors.Is(err, play.ErrTeamNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Team not found", requestID)
	case errors.Is(err, play.ErrQuestionNotOnBoard):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Question is not on this board", requestID)
	case errors.Is(err, play.ErrTooManySessions):
		response.Err(w, http.StatusServiceUnavailable, "TOO_MANY_SESSIONS", "Too many games are being played right now, try again later", requestID)
	case errors.Is(err, play.ErrNoOpenQuestion):
		response.Err(w, http.StatusConflict, "NO_OPEN_QUESTION", "No question is open", requestID)
	case errors.Is(err, play.ErrInvalidDelta), errors.Is(err, play.ErrInvalidTeamName):
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), requestID)
	case errors.Is(err, authoring.ErrForbidden):
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Only the owner or an admin can modify this game", requestID)
	case errors.Is(err, authoring.ErrAdminOnly):
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Admin access required", requestID)
	case errors.Is(err, authoring.ErrInvalidInput), errors.Is(err, auth.ErrInvalidRole):
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), requestID)
	case errors.Is(err, storage.ErrNotImage):
		response.Err(w, http.StatusBadRequest, "INVALID_IMAGE", "Image must be a PNG, JPEG, GIF or WebP file", requestID)
	case errors.Is(err, storage.ErrTooLarge):
		response.Err(w, http.StatusRequestEntityTooLarge, "IMAGE_TOO_LARGE", "Image exceeds the maximum upload size", requestID)
	case errors.Is(err, storage.ErrUploadFailed):
		response.Err(w, http.StatusBadGateway, "UPLOAD_FAILED", "Image upload failed; nothing was saved", requestID)
	case errors.As(err, &partialCreate):
		names := make([]string, 0, len(partialCreate.Persisted))
		for _, c := range partialCreate.Persisted {
			names = append(names, c.Name)
		}
		response.ErrWithDetails(w, http.StatusInternalServerError, "PARTIAL_CREATE",
			"Game was created but not all categories were saved", partialCreateDetails{
				GameID:              partialCreate.Game.ID.String(),
				PersistedCategories: names,
				FailedCategory:      partialCreate.Failed,
			}, requestID)
	case errors.As(err, &partialDelete):
		response.ErrWithDetails(w, http.StatusInternalServerError, "PARTIAL_DELETE",
			"Delete stopped part way; completed steps were not undone", partialDeleteDetails{
				TargetID:          partialDelete.TargetID.String(),
				FailedPhase:       partialDelete.FailedPhase,
				QuestionsDeleted:  partialDelete.QuestionsDeleted,
				CategoriesDeleted: partialDelete.CategoriesDeleted,
			}, requestID)
	default:
		slog.Error(action, "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", action, requestID)
	}
}
