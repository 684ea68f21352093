package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
	"github.com/sandeepkv93/hackathon-backend/internal/http/response"
	"github.com/sandeepkv93/hackathon-backend/internal/repository"
)

type SponsorHandler struct {
	sponsors repository.SponsorRepository
}

func NewSponsorHandler(sponsors repository.SponsorRepository) *SponsorHandler {
	return &SponsorHandler{sponsors: sponsors}
}

type sponsorRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	Logo             string `json:"logo"`
	SubscriptionTier string `json:"subscription_tier"`
}

func (h *SponsorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req sponsorRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}
	s := domain.Sponsor{
		Name:             strings.TrimSpace(req.Name),
		Description:      req.Description,
		Logo:             strings.TrimSpace(req.Logo),
		SubscriptionTier: strings.TrimSpace(req.SubscriptionTier),
	}
	if s.Name == "" {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_FAILED", "name is required", nil)
		return
	}
	if err := h.sponsors.Create(r.Context(), &s); err != nil {
		if errors.Is(err, repository.ErrSponsorExists) {
			response.Error(w, r, http.StatusConflict, "CONFLICT", "sponsor already exists", nil)
			return
		}
		internalError(w, r)
		return
	}
	response.Created(w, r, s)
}

func (h *SponsorHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.sponsors.List(r.Context())
	if err != nil {
		internalError(w, r)
		return
	}
	response.List(w, r, items, nil)
}
