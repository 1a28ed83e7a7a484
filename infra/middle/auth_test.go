package middle

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		apiKey     string
		authHeader string
		wantStatus int
	}{
		{name: "valid key", apiKey: "admin-key", authHeader: "Bearer admin-key", wantStatus: http.StatusOK},
		{name: "missing header", apiKey: "admin-key", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", apiKey: "admin-key", authHeader: "Basic admin-key", wantStatus: http.StatusUnauthorized},
		{name: "wrong key", apiKey: "admin-key", authHeader: "Bearer other", wantStatus: http.StatusUnauthorized},
		{name: "empty bearer", apiKey: "admin-key", authHeader: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "no key configured", apiKey: "", authHeader: "Bearer admin-key", wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("API_KEY", tt.apiKey)

			req := httptest.NewRequest(http.MethodGet, "/settings", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			AuthMiddleware()(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestTokenAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		tokens     string
		apiKey     string
		authHeader string
		wantStatus int
	}{
		{name: "token from list", tokens: "tok-a,tok-b", authHeader: "Bearer tok-b", wantStatus: http.StatusOK},
		{name: "token with spaces", tokens: "tok-a, tok-b", authHeader: "Bearer tok-b", wantStatus: http.StatusOK},
		{name: "unknown token", tokens: "tok-a,tok-b", authHeader: "Bearer tok-c", wantStatus: http.StatusUnauthorized},
		{name: "falls back to api key", tokens: "", apiKey: "admin-key", authHeader: "Bearer admin-key", wantStatus: http.StatusOK},
		{name: "missing header", tokens: "tok-a", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "nothing configured", tokens: "", apiKey: "", authHeader: "Bearer anything", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PAYMENT_API_TOKENS", tt.tokens)
			t.Setenv("API_KEY", tt.apiKey)

			req := httptest.NewRequest(http.MethodPost, "/api/authorization", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			TokenAuthMiddleware()(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:54321"
	assert.Equal(t, "10.0.0.1", GetClientIP(req))

	req.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", GetClientIP(req))

	req.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	assert.Equal(t, "10.0.0.3", GetClientIP(req))
}
