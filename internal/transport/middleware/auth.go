package middleware

import (
	"net/http"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

// Authenticate resolves the bearer token into an auth.Identity on the request
// context. Requests without a valid token stop here with 401.
func Authenticate(verifier auth.Verifier, base *transport.BaseHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := base.ExtractTokenFromHeader(r)
			if token == "" {
				base.HandleServiceError(w, internal.ErrMissingToken)
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				logger.From(r.Context()).Warn("bearer token rejected", "error", err)
				base.HandleServiceError(w, err)
				return
			}

			ctx := auth.WithIdentity(r.Context(), identity)
			ctx = logger.With(ctx, "user_id", identity.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
