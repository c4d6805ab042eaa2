package handler

import (
	"net/http"

	"github.com/quizboard/quizboard/internal/api/middleware"
	"github.com/quizboard/quizboard/internal/api/response"
	"github.com/quizboard/quizboard/internal/api/validation"
)

type categoryNameRequest struct {
	Name string `json:"name"`
}

// CategoryHandler handles category endpoints.
type CategoryHandler struct {
	authoring Authoring
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(authoring Authoring) *CategoryHandler {
	return &CategoryHandler{authoring: authoring}
}

// Create handles POST /games/{id}/categories. The body is optional; without
// a name the category is called "New Category".
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	gameID, ok := urlID(w, r, "id", requestID)
	if !ok {
		return
	}

	var req categoryNameRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req, requestID) {
		return
	}

	if validationFailed(w, validation.ValidateCategoryName(req.Name, true), requestID) {
		return
	}

	c, err := h.authoring.AddCategory(r.Context(), identity, gameID, req.Name)
	if err != nil {
		writeError(w, err, "Failed to add category", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toCategoryResponse(c), requestID)
}

// Rename handles PATCH /categories/{id}.
func (h *CategoryHandler) Rename(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := urlID(w, r, "id", requestID)
	if !ok {
		return
	}

	var req categoryNameRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}

	if validationFailed(w, validation.ValidateCategoryName(req.Name, false), requestID) {
		return
	}

	c, err := h.authoring.RenameCategory(r.Context(), identity, id, req.Name)
	if err != nil {
		writeError(w, err, "Failed to rename category", requestID)
		return
	}

	response.Success(w, http.StatusOK, toCategoryResponse(c), requestID)
}

// Delete handles DELETE /categories/{id}: its questions first, then the category.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := urlID(w, r, "id", requestID)
	if !ok {
		return
	}

	if err := h.authoring.DeleteCategory(r.Context(), identity, id); err != nil {
		writeError(w, err, "Failed to delete category", requestID)
		return
	}

	response.NoContent(w)
}
