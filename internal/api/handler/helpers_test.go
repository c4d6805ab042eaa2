package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/quizboard/quizboard/internal/api/middleware"
	"github.com/quizboard/quizboard/internal/auth"
	"github.com/quizboard/quizboard/internal/authoring"
	"github.com/quizboard/quizboard/internal/category"
	"github.com/quizboard/quizboard/internal/game"
	"github.com/quizboard/quizboard/internal/question"
	"github.com/quizboard/quizboard/internal/storage"
)

// --- Mock Authoring service ---

type mockAuthoring struct {
	createGameFn     func(ctx context.Context, owner *auth.Identity, in authoring.NewGame) (*authoring.Board, error)
	boardFn          func(ctx context.Context, viewer *auth.Identity, gameID uuid.UUID) (*authoring.Board, error)
	updateGameFn     func(ctx context.Context, viewer *auth.Identity, gameID uuid.UUID, changes authoring.GameChanges) (*game.Game, error)
	deleteGameFn     func(ctx context.Context, viewer *auth.Identity, gameID uuid.UUID) error
	addCategoryFn    func(ctx context.Context, viewer *auth.Identity, gameID uuid.UUID, name string) (*category.Category, error)
	renameCategoryFn func(ctx context.Context, viewer *auth.Identity, categoryID uuid.UUID, name string) (*category.Category, error)
	deleteCategoryFn func(ctx context.Context, viewer *auth.Identity, categoryID uuid.UUID) error
	addQuestionFn    func(ctx context.Context, viewer *auth.Identity, categoryID uuid.UUID, in authoring.NewQuestion) (*question.Question, error)
	updateQuestionFn func(ctx context.Context, viewer *auth.Identity, questionID uuid.UUID, fields question.UpdateFields) (*question.Question, error)
	replaceImageFn   func(ctx context.Context, viewer *auth.Identity, questionID uuid.UUID, up storage.Upload) (*question.Question, error)
	deleteQuestionFn func(ctx context.Context, viewer *auth.Identity, questionID uuid.UUID) error
}

func (m *mockAuthoring) CreateGame(ctx context.Context, owner *auth.Identity, in authoring.NewGame) (*authoring.Board, error) {
	if m.createGameFn != nil {
		return m.createGameFn(ctx, owner, in)
	}
	return nil, nil
}

func (m *mockAuthoring) Board(ctx context.Context, viewer *auth.Identity, gameID uuid.UUID) (*authoring.Board, error) {
	if m.boardFn != nil {
		return m.boardFn(ctx, viewer, gameID)
	}
	return nil, game.ErrGameNotFound
}

func (m *mockAuthoring) UpdateGame(ctx context.Context, viewer *auth.Identity, gameID uuid.UUID, changes authoring.GameChanges) (*game.Game, error) {
	if m.updateGameFn != nil {
		return m.updateGameFn(ctx, viewer, gameID, changes)
	}
	return nil, game.ErrGameNotFound
}

func (m *mockAuthoring) DeleteGame(ctx context.Context, viewer *auth.Identity, gameID uuid.UUID) error {
	if m.deleteGameFn != nil {
		return m.deleteGameFn(ctx, viewer, gameID)
	}
	return nil
}

func (m *mockAuthoring) AddCategory(ctx context.Context, viewer *auth.Identity, gameID uuid.UUID, name string) (*category.Category, error) {
	if m.addCategoryFn != nil {
		return m.addCategoryFn(ctx, viewer, gameID, name)
	}
	return nil, game.ErrGameNotFound
}

func (m *mockAuthoring) RenameCategory(ctx context.Context, viewer *auth.Identity, categoryID uuid.UUID, name string) (*category.Category, error) {
	if m.renameCategoryFn != nil {
		return m.renameCategoryFn(ctx, viewer, categoryID, name)
	}
	return nil, category.ErrCategoryNotFound
}

func (m *mockAuthoring) DeleteCategory(ctx context.Context, viewer *auth.Identity, categoryID uuid.UUID) error {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(ctx, viewer, categoryID)
	}
	return nil
}

func (m *mockAuthoring) AddQuestion(ctx context.Context, viewer *auth.Identity, categoryID uuid.UUID, in authoring.NewQuestion) (*question.Question, error) {
	if m.addQuestionFn != nil {
		return m.addQuestionFn(ctx, viewer, categoryID, in)
	}
	return nil, category.ErrCategoryNotFound
}

func (m *mockAuthoring) UpdateQuestion(ctx context.Context, viewer *auth.Identity, questionID uuid.UUID, fields question.UpdateFields) (*question.Question, error) {
	if m.updateQuestionFn != nil {
		return m.updateQuestionFn(ctx, viewer, questionID, fields)
	}
	return nil, question.ErrQuestionNotFound
}

func (m *mockAuthoring) ReplaceQuestionImage(ctx context.Context, viewer *auth.Identity, questionID uuid.UUID, up storage.Upload) (*question.Question, error) {
	if m.replaceImageFn != nil {
		return m.replaceImageFn(ctx, viewer, questionID, up)
	}
	return nil, question.ErrQuestionNotFound
}

func (m *mockAuthoring) DeleteQuestion(ctx context.Context, viewer *auth.Identity, questionID uuid.UUID) error {
	if m.deleteQuestionFn != nil {
		return m.deleteQuestionFn(ctx, viewer, questionID)
	}
	return nil
}

// --- Mock game repository ---

type mockGameRepo struct {
	games []game.Game
	err   error
}

func (m *mockGameRepo) List(_ context.Context) ([]game.Game, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.games, nil
}

func (m *mockGameRepo) GetByID(_ context.Context, id uuid.UUID) (*game.Game, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.games {
		if m.games[i].ID == id {
			g := m.games[i]
			return &g, nil
		}
	}
	return nil, game.ErrGameNotFound
}

// --- Helpers ---

func makeChiRequest(method, path string, body []byte, params map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	return req, w
}

func asUser(req *http.Request, identity *auth.Identity) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), identity))
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &env)
	require.NoError(t, err, "failed to parse response body")
	return env
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := parseEnvelope(t, w)
	errObj, ok := env["error"].(map[string]interface{})
	require.True(t, ok, "expected an error object, got %s", w.Body.String())
	return errObj["code"].(string)
}

var (
	ownerID = uuid.New()
	owner   = &auth.Identity{UserID: ownerID, Username: "host", Role: auth.RolePlayer}
	admin   = &auth.Identity{UserID: uuid.New(), Username: "root", Role: auth.RoleAdmin}
)

func sampleGame(id uuid.UUID, visibility string) *game.Game {
	now := time.Now().UTC()
	return &game.Game{
		ID:         id,
		Name:       "Trivia Night",
		OwnerID:    ownerID,
		OwnerName:  "host",
		Visibility: visibility,
		Status:     game.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func sampleBoard(gameID uuid.UUID) *authoring.Board {
	catID := uuid.New()
	return &authoring.Board{
		Game: sampleGame(gameID, game.VisibilityPublic),
		Categories: []authoring.CategoryQuestions{
			{
				Category: category.Category{ID: catID, GameID: gameID, Name: "Science"},
				Questions: []question.Question{
					{ID: uuid.New(), CategoryID: catID, Question: "H2O?", Answer: "Water", Points: 100},
				},
			},
		},
	}
}
