package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/inihikam/ngobrol/internal/apperr"
	"github.com/inihikam/ngobrol/internal/metrics"
	"github.com/inihikam/ngobrol/internal/models"
)

type contextKey string

const userIDContextKey contextKey = "user_id"

// TokenVerifier resolves a bearer token to the identity it belongs to.
// Implementations must re-resolve the subject from the store so that
// deactivated or deleted accounts fail even with a valid signature.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware is the gateway in front of every protected handler: it
// extracts the bearer token, establishes the caller's identity and puts
// the user id into the request context before the handler runs.
type AuthMiddleware struct {
	verifier TokenVerifier
}

// NewAuthMiddleware creates the auth gateway.
func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth rejects requests without a valid session token.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			m.reject(w, apperr.New(apperr.KindMissingToken))
			return
		}

		if !strings.HasPrefix(header, "Bearer ") {
			m.reject(w, apperr.New(apperr.KindInvalidToken))
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			m.reject(w, apperr.New(apperr.KindInvalidToken))
			return
		}

		user, err := m.verifier.VerifyToken(r.Context(), token)
		if err != nil {
			appErr, ok := err.(*apperr.Error)
			if !ok {
				appErr = apperr.Wrap(apperr.KindInternal, err)
			}
			m.reject(w, appErr)
			return
		}

		ctx := context.WithValue(r.Context(), userIDContextKey, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, err *apperr.Error) {
	metrics.AuthFailures.WithLabelValues(err.Code()).Inc()
	apperr.WriteJSON(w, err)
}

// UserIDFromContext retrieves the authenticated user id placed by
// RequireAuth. It fails closed: a missing entry yields an Unauthorized
// error, independent of the gateway having run.
func UserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(userIDContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, apperr.New(apperr.KindUnauthorized)
	}
	return id, nil
}

// WithUserID returns a context carrying the authenticated user id.
// Exposed for handler tests.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDContextKey, id)
}
