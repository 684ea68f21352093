package middleware

import (
	"errors"
	"net/http"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
	"github.com/sandeepkv93/hackathon-backend/internal/http/response"
	"github.com/sandeepkv93/hackathon-backend/internal/service"
)

// RequireScope admits callers holding any one of the bits in required. It
// must be mounted after Authenticate.
func RequireScope(authz service.Authorizer, required domain.Scope) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := IdentityFromContext(r.Context())
			if err := authz.Require(r.Context(), id, required); err != nil {
				if errors.Is(err, service.ErrForbidden) {
					response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient scope",
						map[string][]string{"required_any": required.Names()})
					return
				}
				WriteAuthError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
