package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
	"github.com/sandeepkv93/hackathon-backend/internal/http/response"
	"github.com/sandeepkv93/hackathon-backend/internal/repository"
)

func newEventRouter(t *testing.T) http.Handler {
	t.Helper()
	h := NewEventHandler(repository.NewEventRepository(newTestDB(t)))
	r := chi.NewRouter()
	r.Get("/events", h.List)
	r.Post("/events", h.Create)
	r.Put("/events/{name}", h.Update)
	return r
}

const demoDay = `{"name":"demo-day","link":"https://hack.test/demo","starts_at":"2026-04-01T10:00:00Z","ends_at":"2026-04-01T18:00:00Z"}`

func TestEventHandlerCreateValidates(t *testing.T) {
	r := newEventRouter(t)
	mod := identity("bob", domain.RoleMod)

	cases := map[string]string{
		"missing link":   `{"name":"x","starts_at":"2026-04-01T10:00:00Z","ends_at":"2026-04-01T18:00:00Z"}`,
		"ends too early": `{"name":"x","link":"https://hack.test","starts_at":"2026-04-01T10:00:00Z","ends_at":"2026-04-01T09:00:00Z"}`,
		"unknown field":  `{"name":"x","bogus":true}`,
		"empty body":     ``,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if rr := serveAs(r, mod, http.MethodPost, "/events", body); rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
			}
		})
	}

	if rr := serveAs(r, mod, http.MethodPost, "/events", demoDay); rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := serveAs(r, mod, http.MethodPost, "/events", demoDay); rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", rr.Code)
	}
}

func TestEventHandlerUpdateAndList(t *testing.T) {
	r := newEventRouter(t)
	mod := identity("bob", domain.RoleMod)
	if rr := serveAs(r, mod, http.MethodPost, "/events", demoDay); rr.Code != http.StatusCreated {
		t.Fatalf("create: %d", rr.Code)
	}

	rr := serveAs(r, mod, http.MethodPut, "/events/demo-day", `{"location":"Hall B","attendees_count":42}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := serveAs(r, mod, http.MethodPut, "/events/missing", `{"location":"x"}`); rr.Code != http.StatusNotFound {
		t.Fatalf("update missing: expected 404, got %d", rr.Code)
	}

	rr = serveAs(r, nil, http.MethodGet, "/events?page=1&page_size=5", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rr.Code)
	}
	var env struct {
		Data struct {
			Items []domain.Event `json:"items"`
		} `json:"data"`
		Meta struct {
			Page response.Page `json:"page"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	items := env.Data.Items
	if len(items) != 1 || items[0].Location != "Hall B" || items[0].AttendeesCount != 42 {
		t.Fatalf("unexpected items: %+v", items)
	}
	if p := env.Meta.Page; p.Total != 1 || p.Page != 1 || p.PageSize != 5 || p.TotalPages != 1 || p.HasNext {
		t.Fatalf("unexpected page meta: %+v", p)
	}

	if rr := serveAs(r, nil, http.MethodGet, "/events?page=zero", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad page: expected 400, got %d", rr.Code)
	}
}
