package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAuthenticatorRequiresTokens(t *testing.T) {
	_, err := NewAuthenticator(nil, slog.Default())
	require.Error(t, err)
	_, err = NewAuthenticator([]string{"  ", ""}, slog.Default())
	require.Error(t, err)
}

func TestAuthenticatorAcceptsAnyConfiguredToken(t *testing.T) {
	auth, err := NewAuthenticator([]string{"first", " second "}, slog.Default())
	require.NoError(t, err)

	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, tc := range []struct {
		name   string
		header string
		status int
	}{
		{"first token", "Bearer first", http.StatusNoContent},
		{"second token trimmed", "Bearer second", http.StatusNoContent},
		{"case-insensitive scheme", "bearer first", http.StatusNoContent},
		{"unknown token", "Bearer third", http.StatusUnauthorized},
		{"missing header", "", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)
			require.Equal(t, tc.status, recorder.Code)
		})
	}
}
