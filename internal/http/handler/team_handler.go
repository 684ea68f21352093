package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
	"github.com/sandeepkv93/hackathon-backend/internal/http/middleware"
	"github.com/sandeepkv93/hackathon-backend/internal/http/response"
	"github.com/sandeepkv93/hackathon-backend/internal/observability"
	"github.com/sandeepkv93/hackathon-backend/internal/repository"
	"github.com/sandeepkv93/hackathon-backend/internal/service"
)

type TeamHandler struct {
	teams      repository.TeamRepository
	principals repository.PrincipalRepository
	authz      service.Authorizer
}

func NewTeamHandler(teams repository.TeamRepository, principals repository.PrincipalRepository, authz service.Authorizer) *TeamHandler {
	return &TeamHandler{teams: teams, principals: principals, authz: authz}
}

type teamRequest struct {
	Name       string   `json:"name"`
	Icon       string   `json:"icon"`
	Categories []string `json:"categories"`
	Members    []string `json:"members"`
}

// Create makes the caller the team's captain.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteAuthError(w, r, service.ErrNotSignedIn)
		return
	}
	var req teamRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}
	t := domain.Team{
		Name:       strings.TrimSpace(req.Name),
		Icon:       strings.TrimSpace(req.Icon),
		Categories: strings.Join(req.Categories, ","),
		Members:    []domain.TeamMember{{Username: id.Subject, Role: domain.TeamRoleCaptain}},
	}
	if t.Name == "" {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_FAILED", "name is required", nil)
		return
	}
	seen := map[string]bool{id.Subject: true}
	for _, raw := range req.Members {
		username := strings.TrimSpace(raw)
		if username == "" || seen[username] {
			continue
		}
		seen[username] = true
		if _, err := h.principals.FindByUsername(r.Context(), username); err != nil {
			if errors.Is(err, repository.ErrPrincipalNotFound) {
				response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "team member does not exist", map[string]string{"username": username})
				return
			}
			internalError(w, r)
			return
		}
		t.Members = append(t.Members, domain.TeamMember{Username: username, Role: domain.TeamRoleMember})
	}
	if err := h.teams.Create(r.Context(), &t); err != nil {
		if errors.Is(err, repository.ErrTeamExists) {
			response.Error(w, r, http.StatusConflict, "CONFLICT", "team already exists", nil)
			return
		}
		internalError(w, r)
		return
	}
	response.Created(w, r, t)
}

func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadTeam(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, t)
}

func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteAuthError(w, r, service.ErrNotSignedIn)
		return
	}
	t, ok := h.loadTeam(w, r)
	if !ok {
		return
	}
	target := chi.URLParam(r, "username")
	if err := h.canRemoveMember(r.Context(), id, t, target); err != nil {
		middleware.WriteAuthError(w, r, err)
		return
	}
	if err := h.teams.RemoveMember(r.Context(), t.ID, target); err != nil {
		if errors.Is(err, repository.ErrTeamMemberNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "team member not found", nil)
			return
		}
		internalError(w, r)
		return
	}
	observability.Audit(r, observability.AuditTeamMemberRemoved, "team", t.Name, "member", target, "actor", id.Subject)
	response.JSON(w, r, http.StatusOK, map[string]string{"removed": target})
}

// canRemoveMember: anyone may leave; a member may remove others only as
// captain; non-members need Team_Manage.
func (h *TeamHandler) canRemoveMember(ctx context.Context, id *service.Identity, t *domain.Team, target string) error {
	if id.Subject == target {
		return nil
	}
	if m, member := t.Member(id.Subject); member {
		if m.Role == domain.TeamRoleCaptain {
			return nil
		}
		return service.ErrForbidden
	}
	return h.authz.Require(ctx, id, domain.ScopeTeamManage)
}

func (h *TeamHandler) loadTeam(w http.ResponseWriter, r *http.Request) (*domain.Team, bool) {
	t, err := h.teams.FindByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, repository.ErrTeamNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "team not found", nil)
			return nil, false
		}
		internalError(w, r)
		return nil, false
	}
	return t, true
}
