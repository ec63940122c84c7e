package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMiddleware() Middleware {
	return New(testSecret, csrfSecret)
}

func okHandler(t *testing.T, wantUID int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, wantUID, uid)
		w.WriteHeader(http.StatusOK)
	}
}

func TestMiddlewareMissingToken(t *testing.T) {
	m := newTestMiddleware()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)

	m.Wrap(okHandler(t, 0))(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareValidGet(t *testing.T) {
	m := newTestMiddleware()
	token, err := GenerateToken(testSecret, 9, "parent")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	m.Wrap(okHandler(t, 9))(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewarePostRequiresCSRF(t *testing.T) {
	m := newTestMiddleware()
	token, err := GenerateToken(testSecret, 9, "parent")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	m.Wrap(okHandler(t, 9))(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewarePostWithCSRF(t *testing.T) {
	m := newTestMiddleware()
	token, err := GenerateToken(testSecret, 9, "parent")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-CSRF-Token", GenerateCSRFToken(csrfSecret, 9))

	m.Wrap(okHandler(t, 9))(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole(t *testing.T) {
	m := newTestMiddleware()

	tests := []struct {
		name     string
		role     string
		allowed  []string
		wantCode int
	}{
		{"parent allowed", "parent", []string{"parent"}, http.StatusOK},
		{"child rejected", "child", []string{"parent"}, http.StatusForbidden},
		{"admin passes any check", "admin", []string{"parent"}, http.StatusOK},
		{"admin-only rejects parent", "parent", []string{}, http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			token, err := GenerateToken(testSecret, 3, tc.role)
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
			req.Header.Set("Authorization", "Bearer "+token)

			h := m.RequireRole(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}, tc.allowed...)
			h(rec, req)

			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}
