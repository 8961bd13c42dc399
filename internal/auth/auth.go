// Package auth enforces the static API token on protected routes.
package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// Middleware checks caller-supplied tokens against the configured one.
type Middleware struct {
	token  string
	logger *slog.Logger
}

// New creates a Middleware for the given static token.
func New(token string, logger *slog.Logger) *Middleware {
	return &Middleware{token: token, logger: logger}
}

// TokenFrom extracts the caller's token from the Authorization header or the
// token query parameter. The optional "Bearer " prefix is stripped from
// whichever source supplied it.
func TokenFrom(r *http.Request) string {
	token := r.Header.Get("Authorization")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	return strings.TrimPrefix(token, "Bearer ")
}

// Require wraps a handler and rejects requests without the exact token.
func (m *Middleware) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := TokenFrom(r)
		if token == "" {
			m.logger.Warn("Missing token", "path", r.URL.Path)
			unauthorized(w, "Missing token")
			return
		}
		if token != m.token {
			m.logger.Warn("Invalid token", "path", r.URL.Path)
			unauthorized(w, "Invalid token")
			return
		}
		next(w, r)
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "error",
		"message": message,
	})
}
