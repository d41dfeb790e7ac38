package http

import (
	"context"
	"net/http"
	"strings"

	"budge/internal/auth"
	"budge/internal/log"
)

const (
	msgMissingToken = "Unauthorized - Missing or invalid token"
	msgInvalidToken = "Unauthorized - Invalid token"
)

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type contextKey string

const userIDKey contextKey = "user_id"

// userIDFrom returns the authenticated user id, or "" outside requireAuth.
func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// requireAuth admits requests carrying a valid bearer token and puts the
// token subject in the request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			UnauthorizedError(msgMissingToken).Write(w)
			return
		}

		claims, err := s.tokens.Verify(token)
		if err != nil {
			log.FromContext(r.Context()).WithComponent(log.ComponentAuth).
				DebugContext(r.Context(), "Rejected bearer token", log.FieldError, err)
			UnauthorizedError(msgInvalidToken).Write(w)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
		ctx = log.WithContext(ctx, log.FromContext(ctx).With(log.FieldUserID, claims.Subject))
		next(w, r.WithContext(ctx))
	}
}
