package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizboard/quizboard/internal/api/middleware"
	"github.com/quizboard/quizboard/internal/auth"
)

// fakeAuthenticator maps tokens to identities.
type fakeAuthenticator struct {
	identities map[string]*auth.Identity
	err        error
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (*auth.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	if id, ok := f.identities[token]; ok {
		return id, nil
	}
	return nil, auth.ErrInvalidToken
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func parseError(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	apiErr, ok := env["error"].(map[string]interface{})
	require.True(t, ok, "expected error object in envelope")
	return apiErr
}

func newAuthenticator() *fakeAuthenticator {
	return &fakeAuthenticator{identities: map[string]*auth.Identity{
		"player-token": {UserID: uuid.New(), Username: "alice", Role: auth.RolePlayer},
		"admin-token":  {UserID: uuid.New(), Username: "root", Role: auth.RoleAdmin},
	}}
}

// --- RequestID ---

func TestRequestID_GeneratesNewID(t *testing.T) {
	var captured string
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = middleware.GetRequestID(r.Context())
	}))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	_, err := uuid.Parse(captured)
	assert.NoError(t, err, "generated request ID should be a valid UUID")
	assert.Equal(t, captured, w.Header().Get("X-Request-ID"))
}

func TestRequestID_ReusesClientHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		reused bool
	}{
		{"plain id", "abc-123", true},
		{"too long", strings.Repeat("a", 65), false},
		{"contains space", "abc 123", false},
		{"non ascii", "réquest", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured string
			handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured = middleware.GetRequestID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Request-ID", tc.header)

			handler.ServeHTTP(httptest.NewRecorder(), req)

			if tc.reused {
				assert.Equal(t, tc.header, captured)
			} else {
				assert.NotEqual(t, tc.header, captured)
				assert.NotEmpty(t, captured)
			}
		})
	}
}

func TestGetRequestID_EmptyContext(t *testing.T) {
	assert.Equal(t, "", middleware.GetRequestID(context.Background()))
}

// --- Recovery ---

func TestRecovery_HandlesPanic(t *testing.T) {
	handler := middleware.RequestID(middleware.Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	apiErr := parseError(t, w)
	assert.Equal(t, "INTERNAL_ERROR", apiErr["code"])
	assert.Equal(t, "An unexpected error occurred", apiErr["message"])
}

func TestRecovery_ReraisesAbortHandler(t *testing.T) {
	handler := middleware.Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

// --- OptionalAuth / RequireAuth ---

func TestOptionalAuth_AnonymousPassesThrough(t *testing.T) {
	var identity *auth.Identity
	handler := middleware.OptionalAuth(newAuthenticator())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity = middleware.GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, identity)
}

func TestOptionalAuth_ValidToken(t *testing.T) {
	var identity *auth.Identity
	handler := middleware.OptionalAuth(newAuthenticator())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity = middleware.GetIdentity(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer player-token")

	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, identity)
	assert.Equal(t, "alice", identity.Username)
}

func TestOptionalAuth_InvalidToken(t *testing.T) {
	handler := middleware.OptionalAuth(newAuthenticator())(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", parseError(t, w)["code"])
}

func TestOptionalAuth_BackendFailure(t *testing.T) {
	handler := middleware.OptionalAuth(&fakeAuthenticator{err: errors.New("db down")})(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer player-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireAuth(t *testing.T) {
	handler := middleware.OptionalAuth(newAuthenticator())(middleware.RequireAuth(okHandler()))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer player-token")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

// --- RequireAdmin ---

func TestRequireAdmin(t *testing.T) {
	handler := middleware.OptionalAuth(newAuthenticator())(middleware.RequireAdmin()(okHandler()))

	tests := []struct {
		name     string
		token    string
		wantCode int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"player", "player-token", http.StatusForbidden},
		{"admin", "admin-token", http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tc.wantCode, w.Code)
			if tc.wantCode == http.StatusForbidden {
				apiErr := parseError(t, w)
				assert.Equal(t, "FORBIDDEN", apiErr["code"])
				assert.Equal(t, "Admin access required", apiErr["message"])
			}
		})
	}
}
