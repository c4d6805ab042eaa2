package handler

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/quizboard/quizboard/internal/api/middleware"
	"github.com/quizboard/quizboard/internal/api/response"
	"github.com/quizboard/quizboard/internal/api/validation"
	"github.com/quizboard/quizboard/internal/authoring"
	"github.com/quizboard/quizboard/internal/question"
	"github.com/quizboard/quizboard/internal/storage"
)

const (
	imageField      = "image"
	multipartMemory = 8 << 20
)

type questionRequest struct {
	Question *string `json:"question,omitempty"`
	Answer   *string `json:"answer,omitempty"`
	Points   *int    `json:"points,omitempty"`
	ImageURL *string `json:"imageUrl,omitempty"`
}

// QuestionHandler handles question endpoints, including image uploads.
type QuestionHandler struct {
	authoring      Authoring
	maxUploadBytes int64
}

// NewQuestionHandler creates a new QuestionHandler. maxUploadBytes bounds
// the image part of multipart requests.
func NewQuestionHandler(authoring Authoring, maxUploadBytes int64) *QuestionHandler {
	return &QuestionHandler{
		authoring:      authoring,
		maxUploadBytes: maxUploadBytes,
	}
}

// Create handles POST /categories/{id}/questions. The body is either JSON or
// multipart/form-data with text fields and an optional "image" file.
func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	categoryID, ok := urlID(w, r, "id", requestID)
	if !ok {
		return
	}

	var req questionRequest
	var image *storage.Upload
	if isMultipart(r) {
		form, ok := h.parseMultipart(w, r, requestID)
		if !ok {
			return
		}
		defer form.RemoveAll()

		if req, ok = questionFromForm(w, form, requestID); !ok {
			return
		}
		if image, ok = imageFromForm(w, form, requestID, false); !ok {
			return
		}
		defer closeUpload(image)
	} else if !decodeJSON(w, r, &req, requestID) {
		return
	}

	if validationFailed(w, validation.ValidateQuestionRequest(validation.QuestionRequest(req)), requestID) {
		return
	}

	in := authoring.NewQuestion{
		Points:   req.Points,
		ImageURL: req.ImageURL,
		Image:    image,
	}
	if req.Question != nil {
		in.Question = *req.Question
	}
	if req.Answer != nil {
		in.Answer = *req.Answer
	}

	q, err := h.authoring.AddQuestion(r.Context(), identity, categoryID, in)
	if err != nil {
		writeError(w, err, "Failed to add question", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toQuestionResponse(q), requestID)
}

// Update handles PATCH /questions/{id}. An empty imageUrl removes the image.
func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := urlID(w, r, "id", requestID)
	if !ok {
		return
	}

	var req questionRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}

	if req.Question == nil && req.Answer == nil && req.Points == nil && req.ImageURL == nil {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
			[]validation.FieldError{{Field: "body", Message: "at least one field is required"}}, requestID)
		return
	}
	if validationFailed(w, validation.ValidateQuestionRequest(validation.QuestionRequest(req)), requestID) {
		return
	}

	fields := question.UpdateFields{
		Question: trimmed(req.Question),
		Answer:   trimmed(req.Answer),
		Points:   req.Points,
		ImageURL: trimmed(req.ImageURL),
	}

	q, err := h.authoring.UpdateQuestion(r.Context(), identity, id, fields)
	if err != nil {
		writeError(w, err, "Failed to update question", requestID)
		return
	}

	response.Success(w, http.StatusOK, toQuestionResponse(q), requestID)
}

// ReplaceImage handles PUT /questions/{id}/image with a multipart "image" file.
func (h *QuestionHandler) ReplaceImage(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := urlID(w, r, "id", requestID)
	if !ok {
		return
	}

	if !isMultipart(r) {
		response.Err(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Body must be multipart/form-data", requestID)
		return
	}
	form, ok := h.parseMultipart(w, r, requestID)
	if !ok {
		return
	}
	defer form.RemoveAll()

	image, ok := imageFromForm(w, form, requestID, true)
	if !ok {
		return
	}
	defer closeUpload(image)

	q, err := h.authoring.ReplaceQuestionImage(r.Context(), identity, id, *image)
	if err != nil {
		writeError(w, err, "Failed to replace image", requestID)
		return
	}

	response.Success(w, http.StatusOK, toQuestionResponse(q), requestID)
}

// Delete handles DELETE /questions/{id}.
func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := urlID(w, r, "id", requestID)
	if !ok {
		return
	}

	if err := h.authoring.DeleteQuestion(r.Context(), identity, id); err != nil {
		writeError(w, err, "Failed to delete question", requestID)
		return
	}

	response.NoContent(w)
}

func (h *QuestionHandler) parseMultipart(w http.ResponseWriter, r *http.Request, requestID string) (*multipart.Form, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+maxJSONBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Err(w, http.StatusRequestEntityTooLarge, "IMAGE_TOO_LARGE", "Image exceeds the maximum upload size", requestID)
			return nil, false
		}
		response.Err(w, http.StatusBadRequest, "INVALID_FORM", "Body must be valid multipart/form-data", requestID)
		return nil, false
	}
	return r.MultipartForm, true
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func questionFromForm(w http.ResponseWriter, form *multipart.Form, requestID string) (questionRequest, bool) {
	var req questionRequest
	if v, ok := formValue(form, "question"); ok {
		req.Question = &v
	}
	if v, ok := formValue(form, "answer"); ok {
		req.Answer = &v
	}
	if v, ok := formValue(form, "imageUrl"); ok {
		req.ImageURL = &v
	}
	if v, ok := formValue(form, "points"); ok && strings.TrimSpace(v) != "" {
		points, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
				[]validation.FieldError{{Field: "points", Message: "points must be an integer"}}, requestID)
			return req, false
		}
		req.Points = &points
	}
	return req, true
}

func formValue(form *multipart.Form, key string) (string, bool) {
	vs, ok := form.Value[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// imageFromForm opens the "image" file part. The file stays open until the
// form's temporary files are removed.
func imageFromForm(w http.ResponseWriter, form *multipart.Form, requestID string, required bool) (*storage.Upload, bool) {
	files := form.File[imageField]
	if len(files) == 0 {
		if required {
			response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
				[]validation.FieldError{{Field: imageField, Message: "image file is required"}}, requestID)
			return nil, false
		}
		return nil, true
	}

	f, err := files[0].Open()
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_FORM", "Could not read image part", requestID)
		return nil, false
	}
	return &storage.Upload{Filename: files[0].Filename, Body: f}, true
}

func closeUpload(up *storage.Upload) {
	if up == nil {
		return
	}
	if c, ok := up.Body.(io.Closer); ok {
		_ = c.Close()
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
