package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/quizboard/quizboard/internal/api/middleware"
	"github.com/quizboard/quizboard/internal/api/response"
	"github.com/quizboard/quizboard/internal/game"
)

const (
	defaultQRSize = 320
	minQRSize     = 128
	maxQRSize     = 1024
)

// GameGetter fetches a single game.
type GameGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*game.Game, error)
}

// ShareHandler renders QR codes that link to a game.
type ShareHandler struct {
	games   GameGetter
	baseURL string
}

// NewShareHandler creates a new ShareHandler. Links are rooted at baseURL.
func NewShareHandler(games GameGetter, baseURL string) *ShareHandler {
	return &ShareHandler{
		games:   games,
		baseURL: baseURL,
	}
}

// QR handles GET /games/{id}/qr, returning a PNG. ?size= sets the edge in pixels.
func (h *ShareHandler) QR(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := urlID(w, r, "id", requestID)
	if !ok {
		return
	}

	size := defaultQRSize
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < minQRSize || n > maxQRSize {
			response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "size must be between 128 and 1024", requestID)
			return
		}
		size = n
	}

	g, err := h.games.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err, "Failed to get game", requestID)
		return
	}
	if !game.CanView(g, identity) {
		writeError(w, game.ErrGameNotFound, "", requestID)
		return
	}

	link, err := url.JoinPath(h.baseURL, "games", g.ID.String())
	if err != nil {
		writeError(w, err, "Failed to build share link", requestID)
		return
	}

	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		slog.Error("qr generation failed", "error", err, "gameId", g.ID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate QR code", requestID)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := w.Write(png); err != nil {
		slog.Error("failed to write QR code", "error", err)
	}
}
