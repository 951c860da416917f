package server

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"synthvault/observability/logging"
)

// Authenticator verifies bearer tokens before requests reach the API handlers.
type Authenticator struct {
	tokens []string
	logger *slog.Logger
}

// NewAuthenticator constructs an authenticator from the configured token list.
func NewAuthenticator(tokens []string, logger *slog.Logger) (*Authenticator, error) {
	cleaned := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if trimmed := strings.TrimSpace(token); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("at least one api token must be configured")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{tokens: cleaned, logger: logger}, nil
}

// Middleware enforces bearer authentication. Rejected credentials are logged
// with the presented material redacted.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a == nil {
			http.Error(w, "authentication unavailable", http.StatusInternalServerError)
			return
		}
		if !a.authenticate(r) {
			a.logger.Warn("rejected unauthenticated request",
				slog.String("path", r.URL.Path),
				logging.MaskField("authorization", r.Header.Get("Authorization")),
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="synthd"`)
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) authenticate(r *http.Request) bool {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return false
	}
	presented := strings.TrimSpace(header[len(prefix):])
	if presented == "" {
		return false
	}
	for _, token := range a.tokens {
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) == 1 {
			return true
		}
	}
	return false
}
