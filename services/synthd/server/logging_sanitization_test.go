package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"synthvault/observability/logging"
)

func TestRejectedAuthLogRedactsCredential(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{}))

	auth, err := NewAuthenticator([]string{"configured-secret"}, logger)
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	handler := auth.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run for rejected credentials")
	}))

	presented := "Bearer sk-live-leaky-credential"
	req := httptest.NewRequest(http.MethodGet, "/v1/assets", nil)
	req.Header.Set("Authorization", presented)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log payload: %v", err)
	}
	if logging.IsAllowlisted("authorization") {
		t.Fatalf("authorization must not be allowlisted: %v", logging.RedactionAllowlist())
	}
	if bytes.Contains(buf.Bytes(), []byte("sk-live-leaky-credential")) {
		t.Fatalf("log output leaked credential: %s", buf.Bytes())
	}
	value, ok := entry["authorization"].(string)
	if !ok {
		t.Fatalf("expected string authorization attribute, got %T", entry["authorization"])
	}
	if value != logging.RedactedValue {
		t.Fatalf("expected redacted credential, got %q", value)
	}
	if entry["path"] != "/v1/assets" {
		t.Fatalf("expected request path in log, got %v", entry["path"])
	}
}

func TestMissingCredentialLogsEmptyField(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{}))

	auth, err := NewAuthenticator([]string{"configured-secret"}, logger)
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	handler := auth.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/v1/assets", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log payload: %v", err)
	}
	// MaskValue leaves empty values untouched so absent headers stay quiet.
	if got := logging.MaskValue(""); got != "" {
		t.Fatalf("empty value should pass through unmasked, got %q", got)
	}
	if entry["authorization"] != "" {
		t.Fatalf("expected empty authorization attribute, got %v", entry["authorization"])
	}
}
