package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/TobiSchelling/studydeck/internal/auth"
	"github.com/TobiSchelling/studydeck/internal/models"
)

// requireUser rejects requests without a valid bearer session and stores
// the session's user in the request context.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		u, err := s.Auth.ValidateSession(strings.TrimSpace(token))
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidSession) {
				s.Log.Error("session lookup failed", "error", err)
			}
			writeError(w, http.StatusUnauthorized, "Session expired, please log in again")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), u)))
	})
}

// user returns the authenticated user. Only valid behind requireUser.
func user(r *http.Request) *models.User {
	u, _ := auth.CurrentUser(r.Context())
	return u
}
