package middleware

import (
	"net/http"

	"github.com/platinummonkey/keycloak-sso/pkg/contextkeys"
	"github.com/platinummonkey/keycloak-sso/pkg/httputil"
	"github.com/platinummonkey/keycloak-sso/pkg/sso"
)

// AuthMiddleware resolves the request user through the SSO resolver and
// stores it in the request context
type AuthMiddleware[U any] struct {
	resolver *sso.Resolver[U]
	optional bool // If true, allow anonymous requests
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware[U any](resolver *sso.Resolver[U], optional bool) *AuthMiddleware[U] {
	return &AuthMiddleware[U]{
		resolver: resolver,
		optional: optional,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware[U]) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := m.resolver.ResolveRequest(r)
		if !ok {
			if m.optional {
				// Continue anonymously
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}

		ctx := contextkeys.WithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUser extracts the authenticated user from request
func GetUser[U any](r *http.Request) (U, bool) {
	user, ok := contextkeys.User(r.Context()).(U)
	return user, ok
}
