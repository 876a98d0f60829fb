package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/redmonkez12/matcha/internal/httputil"
)

type contextKey string

const userIDContextKey contextKey = "user_id"

// Authenticator resolves a session secret to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, secret string) (uuid.UUID, error)
}

// Middleware guards routes that need a signed-in user.
type Middleware struct {
	authenticator Authenticator
	cookies       Cookies
}

func NewMiddleware(authenticator Authenticator, cookies Cookies) *Middleware {
	return &Middleware{authenticator: authenticator, cookies: cookies}
}

// RequireSession answers 401 without detail unless the session cookie names
// a live session.
func (m *Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.authenticator.Authenticate(r.Context(), m.cookies.Session(r))
		if err != nil {
			httputil.RespondErrorWithCode(w, "unauthorized", httputil.CodeUnauthorized, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext extracts the user ID set by RequireSession.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDContextKey).(uuid.UUID)
	return userID, ok
}
