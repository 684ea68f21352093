package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sandeepkv93/hackathon-backend/internal/http/response"
	"github.com/sandeepkv93/hackathon-backend/internal/observability"
	"github.com/sandeepkv93/hackathon-backend/internal/security"
	"github.com/sandeepkv93/hackathon-backend/internal/service"
)

type identityContextKey struct{}

// Authenticate resolves the caller through authn and stores the identity on
// the request context. Every failure ends the request.
func Authenticate(authn service.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := authn.Authenticate(r.Context(), r)
			if err != nil {
				WriteAuthError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func WithIdentity(ctx context.Context, id *service.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

func IdentityFromContext(ctx context.Context) (*service.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*service.Identity)
	return id, ok && id != nil
}

// WriteAuthError maps authentication and authorization failures to the
// response envelope. Unrecognized errors are logged and reported as 500
// without detail.
func WriteAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotSignedIn):
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "not signed in", nil)
	case errors.Is(err, security.ErrExpiredToken):
		response.Error(w, r, http.StatusUnauthorized, "TOKEN_EXPIRED", "token expired", nil)
	case errors.Is(err, security.ErrInvalidToken):
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token", nil)
	case errors.Is(err, service.ErrSessionRevoked):
		observability.Audit(r, observability.AuditSessionRevoked)
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "session revoked", nil)
	case errors.Is(err, service.ErrPrincipalGone):
		observability.Audit(r, observability.AuditPrincipalGone)
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "account not found", nil)
	case errors.Is(err, service.ErrTokenOwnerMismatch):
		observability.Audit(r, observability.AuditOwnerMismatch)
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "forbidden", nil)
	case errors.Is(err, service.ErrForbidden):
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient scope", nil)
	default:
		slog.ErrorContext(r.Context(), "authentication failed", "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
