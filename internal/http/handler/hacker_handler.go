package handler

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
	"github.com/sandeepkv93/hackathon-backend/internal/http/middleware"
	"github.com/sandeepkv93/hackathon-backend/internal/http/response"
	"github.com/sandeepkv93/hackathon-backend/internal/observability"
	"github.com/sandeepkv93/hackathon-backend/internal/repository"
	"github.com/sandeepkv93/hackathon-backend/internal/service"
)

type HackerHandler struct {
	hackers repository.HackerRepository
	authz   service.Authorizer
}

func NewHackerHandler(hackers repository.HackerRepository, authz service.Authorizer) *HackerHandler {
	return &HackerHandler{hackers: hackers, authz: authz}
}

type hackerRequest struct {
	Username            string `json:"username"`
	Email               string `json:"email"`
	FirstName           string `json:"first_name"`
	LastName            string `json:"last_name"`
	PhoneNumber         string `json:"phone_number"`
	Pronouns            string `json:"pronouns"`
	Ethnicity           string `json:"ethnicity"`
	SchoolName          string `json:"school_name"`
	Major               string `json:"major"`
	GradYear            string `json:"grad_year"`
	GitHub              string `json:"github"`
	LinkedIn            string `json:"linkedin"`
	WhyAttend           string `json:"why_attend"`
	DietaryRestrictions string `json:"dietary_restrictions"`
	Beginner            bool   `json:"beginner"`
	InPerson            bool   `json:"in_person"`
	CanShareInfo        bool   `json:"can_share_info"`
}

const maxWhyAttend = 200

func (req hackerRequest) toHacker(username string) (domain.Hacker, error) {
	h := domain.Hacker{
		Username:            username,
		Email:               strings.TrimSpace(req.Email),
		FirstName:           strings.TrimSpace(req.FirstName),
		LastName:            strings.TrimSpace(req.LastName),
		PhoneNumber:         strings.TrimSpace(req.PhoneNumber),
		Pronouns:            strings.TrimSpace(req.Pronouns),
		Ethnicity:           strings.TrimSpace(req.Ethnicity),
		SchoolName:          strings.TrimSpace(req.SchoolName),
		Major:               strings.TrimSpace(req.Major),
		GradYear:            strings.TrimSpace(req.GradYear),
		GitHub:              strings.TrimSpace(req.GitHub),
		LinkedIn:            strings.TrimSpace(req.LinkedIn),
		WhyAttend:           strings.TrimSpace(req.WhyAttend),
		DietaryRestrictions: strings.TrimSpace(req.DietaryRestrictions),
		Beginner:            req.Beginner,
		InPerson:            req.InPerson,
		CanShareInfo:        req.CanShareInfo,
	}
	var problems []string
	if addr, err := mail.ParseAddress(h.Email); err != nil || addr.Address != h.Email {
		problems = append(problems, "email must be a valid address")
	}
	if len(h.WhyAttend) > maxWhyAttend {
		problems = append(problems, "why_attend must be at most 200 characters")
	}
	if len(problems) > 0 {
		return h, errors.New(strings.Join(problems, "; "))
	}
	return h, nil
}

// Create files a profile for the caller. Filing one for another username
// needs Hacker_Manage.
func (h *HackerHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteAuthError(w, r, service.ErrNotSignedIn)
		return
	}
	var req hackerRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = id.Subject
	}
	if username != id.Subject {
		if err := h.authz.Require(r.Context(), id, domain.ScopeHackerManage); err != nil {
			middleware.WriteAuthError(w, r, err)
			return
		}
	}
	hacker, err := req.toHacker(username)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return
	}
	if err := h.hackers.Create(r.Context(), &hacker); err != nil {
		if errors.Is(err, repository.ErrHackerExists) {
			response.Error(w, r, http.StatusConflict, "CONFLICT", "hacker username or email already exists", nil)
			return
		}
		internalError(w, r)
		return
	}
	response.Created(w, r, hacker)
}

func (h *HackerHandler) Get(w http.ResponseWriter, r *http.Request) {
	hacker, err := h.hackers.FindByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, hacker)
}

func (h *HackerHandler) Accept(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	hacker, err := h.hackers.Accept(r.Context(), username)
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	actor := ""
	if id, ok := middleware.IdentityFromContext(r.Context()); ok {
		actor = id.Subject
	}
	observability.Audit(r, observability.AuditHackerAccepted, "hacker", username, "actor", actor)
	response.JSON(w, r, http.StatusOK, hacker)
}

func (h *HackerHandler) List(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequestFromQuery(r)
	if err != nil {
		badRequest(w, r, err)
		return
	}
	page, err := h.hackers.ListPaged(r.Context(), req)
	if err != nil {
		internalError(w, r)
		return
	}
	response.List(w, r, page.Items, &response.Page{
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages,
		HasNext:    page.HasNext(),
	})
}

func (h *HackerHandler) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, repository.ErrHackerNotFound) {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "hacker not found", nil)
		return
	}
	internalError(w, r)
}
