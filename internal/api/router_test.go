package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	specpkg "github.com/quizboard/quizboard/api"
	"github.com/quizboard/quizboard/internal/api"
	"github.com/quizboard/quizboard/internal/auth"
	"github.com/quizboard/quizboard/internal/play"
	"github.com/quizboard/quizboard/internal/session"
)

const (
	testSecret = "router-test-secret-0123456789abcdef"
	testTTL    = time.Hour
)

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(_ context.Context) error { return p.err }

// memUserRepo is an in-memory auth.UserRepository.
type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*auth.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*auth.User)}
}

func (m *memUserRepo) Create(_ context.Context, u *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(u)
}

func (m *memUserRepo) createLocked(u *auth.User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return auth.ErrDuplicateEmail
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (m *memUserRepo) List(_ context.Context) ([]auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]auth.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUserRepo) UpdateRole(_ context.Context, id uuid.UUID, role string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	u.Role = role
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) CreateBootstrapping(_ context.Context, u *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Role = auth.RolePlayer
	if len(m.users) == 0 {
		u.Role = auth.RoleAdmin
	}
	return m.createLocked(u)
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	users := newMemUserRepo()
	hub := play.NewHub([]string{"*"})
	return api.NewRouter(api.RouterDeps{
		DBPinger:       &stubPinger{},
		Version:        "test",
		OpenAPISpec:    specpkg.OpenAPISpec,
		AllowedOrigins: []string{"http://localhost:5173"},
		AuthService:    auth.NewService(users, session.NewMemoryDenylist(), testSecret, testTTL, 4),
		UserRepo:       users,
		Sessions:       play.NewManager(hub),
		Hub:            hub,
	})
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func register(t *testing.T, h http.Handler, email string) (token, role string) {
	t.Helper()
	w := do(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    email,
		"username": "player",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		Token string `json:"token"`
		User  struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(parseEnvelope(t, w).Data, &data))
	return data.Token, data.User.Role
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	w := do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_FirstUserIsAdmin(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	_, role := register(t, h, "first@example.com")
	assert.Equal(t, auth.RoleAdmin, role)

	_, role = register(t, h, "second@example.com")
	assert.Equal(t, auth.RolePlayer, role)

	w := do(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "FIRST@example.com", "username": "again", "password": "hunter22",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_EMAIL", parseEnvelope(t, w).Error.Code)
}

func TestRouter_LoginAndLogout(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)
	register(t, h, "host@example.com")

	w := do(t, h, http.MethodPost, "/auth/login", "", map[string]string{"email": "host@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", parseEnvelope(t, w).Error.Code)

	w = do(t, h, http.MethodPost, "/auth/login", "", map[string]string{"email": " Host@Example.com ", "password": "hunter22"})
	require.Equal(t, http.StatusOK, w.Code)
	var sess struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(parseEnvelope(t, w).Data, &sess))

	w = do(t, h, http.MethodGet, "/auth/me", sess.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodPost, "/auth/logout", sess.Token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/auth/me", sess.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "revoked token is rejected")
}

func TestRouter_AuthoringRequiresLogin(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)
	id := uuid.NewString()

	cases := []struct{ method, path string }{
		{http.MethodPost, "/games"},
		{http.MethodPatch, "/games/" + id},
		{http.MethodDelete, "/games/" + id},
		{http.MethodPost, "/games/" + id + "/categories"},
		{http.MethodPatch, "/categories/" + id},
		{http.MethodDelete, "/categories/" + id},
		{http.MethodPost, "/categories/" + id + "/questions"},
		{http.MethodPatch, "/questions/" + id},
		{http.MethodPut, "/questions/" + id + "/image"},
		{http.MethodDelete, "/questions/" + id},
		{http.MethodGet, "/auth/me"},
	}
	for _, tc := range cases {
		w := do(t, h, tc.method, tc.path, "", map[string]string{})
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouter_InvalidTokenRejected(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	w := do(t, h, http.MethodPost, "/auth/login", "not-a-jwt", map[string]string{"email": "a@b.c", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", parseEnvelope(t, w).Error.Code)
}

func TestRouter_AdminConsole(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)
	adminToken, _ := register(t, h, "admin@example.com")
	playerToken, _ := register(t, h, "player@example.com")

	w := do(t, h, http.MethodGet, "/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodGet, "/admin/users", playerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, h, http.MethodGet, "/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(parseEnvelope(t, w).Data, &users))
	require.Len(t, users, 2)

	var playerID string
	for _, u := range users {
		if u.Email == "player@example.com" {
			playerID = u.ID
		}
	}
	require.NotEmpty(t, playerID)

	w = do(t, h, http.MethodPatch, "/admin/users/"+playerID+"/role", adminToken, map[string]string{"role": "superuser"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPatch, "/admin/users/"+playerID+"/role", adminToken, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, w.Code)

	// Role changes apply to live sessions.
	w = do(t, h, http.MethodGet, "/admin/users", playerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_UnknownPlaySession(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	w := do(t, h, http.MethodGet, "/play/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/play/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", parseEnvelope(t, w).Error.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/games", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_OpenAPIServed(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	w := do(t, h, http.MethodGet, "/openapi.json", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Contains(t, doc, "paths")
}
