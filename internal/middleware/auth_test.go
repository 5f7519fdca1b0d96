package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authTestHandler(t *testing.T) (http.Handler, *bool) {
	t.Helper()
	return authTestWrap(t, NewAuthMiddleware("s3cret-token").Handler)
}

func streamAuthTestHandler(t *testing.T) (http.Handler, *bool) {
	t.Helper()
	return authTestWrap(t, NewAuthMiddleware("s3cret-token").StreamHandler)
}

func authTestWrap(t *testing.T, mw func(http.Handler) http.Handler) (http.Handler, *bool) {
	t.Helper()
	called := false
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	return h, &called
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("missing token is unauthorized", func(t *testing.T) {
		h, called := authTestHandler(t)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, *called)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "UNAUTHORIZED", body["code"])
	})

	t.Run("non-bearer scheme is unauthorized", func(t *testing.T) {
		h, called := authTestHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, *called)
	})

	t.Run("wrong token is forbidden", func(t *testing.T) {
		h, called := authTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/send", nil)
		req.Header.Set("Authorization", "Bearer wrong")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "FORBIDDEN")
		assert.False(t, *called)
	})

	t.Run("valid bearer token passes", func(t *testing.T) {
		h, called := authTestHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		req.Header.Set("Authorization", "Bearer s3cret-token")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, *called)
	})

	t.Run("query token ignored outside streams", func(t *testing.T) {
		h, called := authTestHandler(t)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/contacts?token=s3cret-token", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, *called)
	})

	t.Run("stream accepts query token on GET", func(t *testing.T) {
		h, called := streamAuthTestHandler(t)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events?token=s3cret-token", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, *called)
	})

	t.Run("stream rejects wrong query token", func(t *testing.T) {
		h, called := streamAuthTestHandler(t)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events?token=nope", nil))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, *called)
	})

	t.Run("stream ignores query token on POST", func(t *testing.T) {
		h, called := streamAuthTestHandler(t)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/events?token=s3cret-token", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, *called)
	})
}
