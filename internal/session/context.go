package session

import (
	"context"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type contextKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached by Load, if any.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}

// IsAdmin reports whether ctx carries an admin session.
func IsAdmin(ctx context.Context) bool {
	s, ok := FromContext(ctx)
	return ok && s.IsAdmin
}

// Load resolves the request's session and attaches it to the context.
// Requests without a session pass through unchanged.
func (m *Manager) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Resolve(r)
		if err != nil {
			if !errors.Is(err, ErrNoSession) {
				log.WithError(err).Warn("failed to resolve session")
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}
