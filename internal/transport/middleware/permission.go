package middleware

import (
	"net/http"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

// RequireRoles lets the request through when the identity holds any of roles.
func RequireRoles(base *transport.BaseHandler, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				base.HandleServiceError(w, internal.ErrMissingToken)
				return
			}

			for _, role := range roles {
				if identity.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.From(r.Context()).Warn("access denied: missing required role",
				"user_id", identity.UserID,
				"required_roles", roles,
				"user_roles", identity.Roles)
			base.HandleServiceError(w, internal.ErrUnauthorizedAccess)
		})
	}
}
