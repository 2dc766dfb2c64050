package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBearerAuthMiddleware(t *testing.T) {
	const token = "colprofiler-dev-token"

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"matching bearer token", "Bearer " + token, http.StatusOK},
		{"wrong bearer token", "Bearer not-the-token", http.StatusUnauthorized},
		{"no authorization header at all", "", http.StatusUnauthorized},
		{"basic scheme instead of bearer", "Basic " + token, http.StatusUnauthorized},
		{"bearer prefix with no token", "Bearer ", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := bearerAuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}), token)

			req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestBearerAuthMiddleware_DoesNotReachNextHandlerOnRejection(t *testing.T) {
	var nextCalled bool
	handler := bearerAuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusOK)
	}), "colprofiler-dev-token")

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.False(t, nextCalled, "profile_table handler must not run for an unauthenticated request")
}
