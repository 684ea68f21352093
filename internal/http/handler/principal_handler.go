package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
	"github.com/sandeepkv93/hackathon-backend/internal/http/middleware"
	"github.com/sandeepkv93/hackathon-backend/internal/http/response"
	"github.com/sandeepkv93/hackathon-backend/internal/observability"
	"github.com/sandeepkv93/hackathon-backend/internal/repository"
	"github.com/sandeepkv93/hackathon-backend/internal/security"
	"github.com/sandeepkv93/hackathon-backend/internal/service"
)

type PrincipalHandler struct {
	auth         service.AuthServiceInterface
	authz        service.Authorizer
	cookieSecure bool
}

func NewPrincipalHandler(auth service.AuthServiceInterface, authz service.Authorizer, cookieSecure bool) *PrincipalHandler {
	return &PrincipalHandler{auth: auth, authz: authz, cookieSecure: cookieSecure}
}

type setScopesRequest struct {
	Scopes []string `json:"scopes"`
}

// Delete removes a principal. Callers may delete themselves; anyone else
// needs User_Manage.
func (h *PrincipalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteAuthError(w, r, service.ErrNotSignedIn)
		return
	}
	username := chi.URLParam(r, "username")
	self := id.Subject == username
	if !self {
		if err := h.authz.Require(r.Context(), id, domain.ScopeUserManage); err != nil {
			middleware.WriteAuthError(w, r, err)
			return
		}
	}
	if err := h.auth.DeletePrincipal(r.Context(), username); err != nil {
		if errors.Is(err, repository.ErrPrincipalNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "principal not found", nil)
			return
		}
		internalError(w, r)
		return
	}
	if self {
		security.ClearSessionCookie(w, h.cookieSecure)
	}
	observability.Audit(r, observability.AuditPrincipalDeleted, "username", username, "actor", id.Subject)
	response.JSON(w, r, http.StatusOK, map[string]string{"deleted": username})
}

func (h *PrincipalHandler) SetScopes(w http.ResponseWriter, r *http.Request) {
	var req setScopesRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}
	username := chi.URLParam(r, "username")
	scopes, err := h.auth.SetScopes(r.Context(), username, req.Scopes)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidScope):
			response.Error(w, r, http.StatusBadRequest, "INVALID_SCOPE", err.Error(), nil)
		case errors.Is(err, repository.ErrPrincipalNotFound):
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "principal not found", nil)
		default:
			internalError(w, r)
		}
		return
	}
	observability.Audit(r, observability.AuditScopesChanged, "username", username, "scopes", scopes.String())
	response.JSON(w, r, http.StatusOK, map[string]any{
		"username": username,
		"scopes":   scopes.Names(),
		"roles":    scopes.Roles(),
	})
}
