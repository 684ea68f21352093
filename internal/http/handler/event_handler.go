package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
	"github.com/sandeepkv93/hackathon-backend/internal/http/response"
	"github.com/sandeepkv93/hackathon-backend/internal/repository"
)

type EventHandler struct {
	events repository.EventRepository
}

func NewEventHandler(events repository.EventRepository) *EventHandler {
	return &EventHandler{events: events}
}

type eventRequest struct {
	Name           *string    `json:"name"`
	Description    *string    `json:"description"`
	Link           *string    `json:"link"`
	Image          *string    `json:"image"`
	Location       *string    `json:"location"`
	EventType      *string    `json:"event_type"`
	EventStatus    *string    `json:"event_status"`
	AttendeesCount *int       `json:"attendees_count"`
	StartsAt       *time.Time `json:"starts_at"`
	EndsAt         *time.Time `json:"ends_at"`
}

// apply copies the non-nil fields of req onto e.
func (req eventRequest) apply(e *domain.Event) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setString(&e.Name, req.Name)
	setString(&e.Description, req.Description)
	setString(&e.Link, req.Link)
	setString(&e.Image, req.Image)
	setString(&e.Location, req.Location)
	setString(&e.EventType, req.EventType)
	setString(&e.EventStatus, req.EventStatus)
	if req.AttendeesCount != nil {
		e.AttendeesCount = *req.AttendeesCount
	}
	if req.StartsAt != nil {
		e.StartsAt = req.StartsAt.UTC()
	}
	if req.EndsAt != nil {
		e.EndsAt = req.EndsAt.UTC()
	}
}

func validateEvent(e *domain.Event) error {
	var problems []string
	if e.Name == "" {
		problems = append(problems, "name is required")
	}
	if u, err := url.Parse(e.Link); e.Link == "" || err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, "link must be an absolute URL")
	}
	if e.StartsAt.IsZero() || e.EndsAt.IsZero() {
		problems = append(problems, "starts_at and ends_at are required")
	} else if !e.EndsAt.After(e.StartsAt) {
		problems = append(problems, "ends_at must be after starts_at")
	}
	if e.AttendeesCount < 0 {
		problems = append(problems, "attendees_count must not be negative")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}
	var e domain.Event
	req.apply(&e)
	if err := validateEvent(&e); err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return
	}
	if err := h.events.Create(r.Context(), &e); err != nil {
		if errors.Is(err, repository.ErrEventExists) {
			response.Error(w, r, http.StatusConflict, "CONFLICT", "event already exists", nil)
			return
		}
		internalError(w, r)
		return
	}
	response.Created(w, r, e)
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}
	e, err := h.events.FindByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "event not found", nil)
			return
		}
		internalError(w, r)
		return
	}
	req.apply(e)
	if err := validateEvent(e); err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return
	}
	if err := h.events.Update(r.Context(), e); err != nil {
		if errors.Is(err, repository.ErrEventExists) {
			response.Error(w, r, http.StatusConflict, "CONFLICT", "event already exists", nil)
			return
		}
		internalError(w, r)
		return
	}
	response.JSON(w, r, http.StatusOK, e)
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequestFromQuery(r)
	if err != nil {
		badRequest(w, r, err)
		return
	}
	page, err := h.events.ListPaged(r.Context(), req)
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
