package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/research-copilot/copilot/pkg/session"
)

type contextKey string

const sessionContextKey contextKey = "copilot_session"

// withSession resolves the session cookie, creating a fresh session
// (and setting the cookie) when none exists.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.resolveSession(w, r)
		if sess == nil {
			writeError(w, http.StatusInternalServerError, "session unavailable")
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) resolveSession(w http.ResponseWriter, r *http.Request) *session.Session {
	if cookie, err := r.Cookie(s.config.CookieName); err == nil {
		if sess, err := s.deps.Sessions.Get(r.Context(), cookie.Value); err == nil {
			return sess
		}
	}

	sess, err := s.deps.Sessions.Create(r.Context())
	if err != nil {
		slog.Error("failed to create session", "error", err)
		return nil
	}
	s.setSessionCookie(w, sess.ID(), 0)
	return sess
}

func (s *Server) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionFromContext returns the request's session. The session
// middleware guarantees presence on every route that uses it.
func sessionFromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionContextKey).(*session.Session)
	return sess
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
