package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	domainerrors "github.com/listenupapp/readtrack/internal/errors"
	"github.com/listenupapp/readtrack/internal/session"
)

// SessionResolver turns a bearer token into a session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*session.Session, error)
}

// authMiddleware resolves Bearer tokens and stores the session in context.
// Requests without a usable token continue anonymously; the intents that
// need a session reject them with AuthRequired. Any other identity failure
// answers the request with its own error.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok || s.sessions == nil {
			next.ServeHTTP(w, r)
			return
		}

		sess, err := s.sessions.Resolve(r.Context(), token)
		if errors.Is(err, domainerrors.ErrAuthRequired) {
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			s.logger.WarnContext(r.Context(), "session resolution failed", "error", err)
			s.writeError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// currentSession returns the request's session, or nil when anonymous. Core
// operations decide whether a session is required.
func currentSession(ctx context.Context) *session.Session {
	return session.FromContext(ctx)
}
