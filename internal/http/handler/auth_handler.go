package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
	"github.com/sandeepkv93/hackathon-backend/internal/http/middleware"
	"github.com/sandeepkv93/hackathon-backend/internal/http/response"
	"github.com/sandeepkv93/hackathon-backend/internal/observability"
	"github.com/sandeepkv93/hackathon-backend/internal/security"
	"github.com/sandeepkv93/hackathon-backend/internal/service"
)

type AuthHandler struct {
	auth         service.AuthServiceInterface
	cookieSecure bool
}

func NewAuthHandler(auth service.AuthServiceInterface, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, cookieSecure: cookieSecure}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type principalView struct {
	Username  string    `json:"username"`
	Scopes    []string  `json:"scopes"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

func newPrincipalView(p *domain.Principal, scopes domain.Scope) principalView {
	return principalView{
		Username:  p.Username,
		Scopes:    scopes.Names(),
		Roles:     scopes.Roles(),
		CreatedAt: p.CreatedAt,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}
	p, err := h.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidUsername), errors.Is(err, service.ErrInvalidPassword):
			response.Error(w, r, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		case errors.Is(err, service.ErrUsernameTaken):
			response.Error(w, r, http.StatusConflict, "CONFLICT", "username already taken", nil)
		default:
			internalError(w, r)
		}
		return
	}
	observability.Audit(r, observability.AuditRegister, "username", p.Username)
	response.Created(w, r, newPrincipalView(p, p.Scopes))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}
	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			observability.Audit(r, observability.AuditLoginFailed)
			response.Error(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password", nil)
			return
		}
		internalError(w, r)
		return
	}
	security.SetSessionCookie(w, res.Token.Token, res.Token.ExpiresAt, h.cookieSecure)
	observability.Audit(r, observability.AuditLogin, "username", res.Principal.Username)
	response.JSON(w, r, http.StatusOK, map[string]any{
		"token":      res.Token.Token,
		"token_type": "Bearer",
		"expires_at": res.Token.ExpiresAt,
		"principal":  newPrincipalView(res.Principal, res.Principal.Scopes),
	})
}

// Logout revokes only the token that authenticated this request.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteAuthError(w, r, service.ErrNotSignedIn)
		return
	}
	if id.Mode == service.ModeSession {
		if err := h.auth.Logout(r.Context(), id.TokenID); err != nil {
			internalError(w, r)
			return
		}
	}
	security.ClearSessionCookie(w, h.cookieSecure)
	observability.Audit(r, observability.AuditLogout, "username", id.Subject)
	response.JSON(w, r, http.StatusOK, map[string]bool{"logged_out": true})
}

func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteAuthError(w, r, service.ErrNotSignedIn)
		return
	}
	n, err := h.auth.LogoutAll(r.Context(), id.Subject)
	if err != nil {
		internalError(w, r)
		return
	}
	security.ClearSessionCookie(w, h.cookieSecure)
	observability.Audit(r, observability.AuditLogoutAll, "username", id.Subject, "revoked", n)
	response.JSON(w, r, http.StatusOK, map[string]int64{"revoked": n})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteAuthError(w, r, service.ErrNotSignedIn)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"principal":  newPrincipalView(id.Principal, id.Scopes),
		"mode":       id.Mode,
		"expires_at": id.ExpiresAt,
	})
}
