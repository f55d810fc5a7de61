package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAccount_InjectsHeaderIntoContext(t *testing.T) {
	var seen string
	handler := Account()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = AccountID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("X-Account-ID", "acct-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "acct-42", seen)
}

func TestAccount_GuestRequestHasNoAccount(t *testing.T) {
	var seen string
	handler := Account()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = AccountID(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/cart", nil))

	assert.Empty(t, seen)
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/cart", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Account-ID")
}

func TestAPIKeyAuth(t *testing.T) {
	handler := APIKeyAuth("secret", zerolog.Nop())(okHandler())

	tests := []struct {
		name       string
		path       string
		key        string
		wantStatus int
	}{
		{name: "valid key", path: "/api/cart", key: "secret", wantStatus: http.StatusOK},
		{name: "missing key", path: "/api/cart", key: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong key", path: "/api/cart", key: "nope", wantStatus: http.StatusUnauthorized},
		{name: "health bypasses auth", path: "/health", key: "", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRecovery_ConvertsPanicTo500(t *testing.T) {
	handler := Recovery(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "internal server error"}`, rec.Body.String())
}
