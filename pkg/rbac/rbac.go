// Package rbac provides role gates that run after middleware.Auth.
package rbac

import (
	"net/http"

	"github.com/shashiranjanraj/souq/pkg/middleware"
	"github.com/shashiranjanraj/souq/pkg/response"
)

// RoleAdmin is the role allowed through AdminOnly.
const RoleAdmin = "admin"

// HasRole allows the request through only when the authenticated role is one
// of roles. Unauthenticated requests get 401, other roles 403 with message.
func HasRole(message string, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := middleware.UserIDFromCtx(r); !ok {
				response.Error(w, http.StatusUnauthorized, "Unauthorized: No token provided")
				return
			}
			role, _ := middleware.RoleFromCtx(r)
			if !allowed[role] {
				response.Error(w, http.StatusForbidden, message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminOnly is HasRole for the admin role.
func AdminOnly() func(http.Handler) http.Handler {
	return HasRole("Forbidden: Admins only", RoleAdmin)
}
