package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shashiranjanraj/souq/pkg/auth"
	"github.com/shashiranjanraj/souq/pkg/logger"
	"github.com/shashiranjanraj/souq/pkg/response"
)

// TokenCookie is the cookie consulted when no Authorization header is sent.
const TokenCookie = "token"

type identityKey struct{}

type identity struct {
	userID string
	role   string
}

// TokenValidator verifies a raw token. *auth.Issuer satisfies it.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// Auth rejects requests without a valid bearer token or token cookie and
// stores the caller's user id and role in the request context.
func Auth(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				response.Error(w, http.StatusUnauthorized, "Unauthorized: No token provided")
				return
			}

			claims, err := v.Validate(token)
			if err != nil {
				logger.WithCtx(r.Context()).Debug("auth: token rejected", "error", err)
				response.Error(w, http.StatusUnauthorized, "Unauthorized: Invalid token")
				return
			}

			ctx := WithIdentity(r.Context(), claims.UserID, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if after, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(after)
		}
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// WithIdentity stores a caller identity in ctx.
func WithIdentity(ctx context.Context, userID, role string) context.Context {
	return context.WithValue(ctx, identityKey{}, identity{userID: userID, role: role})
}

// UserIDFromCtx returns the authenticated user id.
func UserIDFromCtx(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(identityKey{}).(identity)
	return id.userID, ok && id.userID != ""
}

// RoleFromCtx returns the authenticated user's role.
func RoleFromCtx(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(identityKey{}).(identity)
	return id.role, ok
}
