package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type decoded struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
	Meta struct {
		RequestID string `json:"request_id"`
		Timestamp string `json:"timestamp"`
		Page      *Page  `json:"page"`
	} `json:"meta"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) decoded {
	t.Helper()
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}
	var out decoded
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func TestCreatedWritesEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
	req.Header.Set("X-Request-Id", "req-abc")
	rr := httptest.NewRecorder()

	Created(rr, req, map[string]string{"name": "kickoff"})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status %d", rr.Code)
	}
	out := decode(t, rr)
	if !out.Success || out.Error != nil || string(out.Data) != `{"name":"kickoff"}` {
		t.Fatalf("unexpected envelope: %s", rr.Body.String())
	}
	if out.Meta.RequestID != "req-abc" || out.Meta.Timestamp == "" || out.Meta.Page != nil {
		t.Fatalf("unexpected meta: %+v", out.Meta)
	}
}

func TestListCarriesPageMeta(t *testing.T) {
	rr := httptest.NewRecorder()
	page := &Page{Page: 2, PageSize: 10, Total: 25, TotalPages: 3, HasNext: true}

	List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/events?page=2", nil), []int{1, 2}, page)

	out := decode(t, rr)
	if string(out.Data) != `{"items":[1,2]}` {
		t.Fatalf("data %s", out.Data)
	}
	if out.Meta.Page == nil || *out.Meta.Page != *page {
		t.Fatalf("page meta %+v", out.Meta.Page)
	}
}

func TestErrorOmitsData(t *testing.T) {
	rr := httptest.NewRecorder()

	Error(rr, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusNotFound, "NOT_FOUND", "team member does not exist", map[string]string{"username": "bob"})

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status %d", rr.Code)
	}
	out := decode(t, rr)
	if out.Success || out.Data != nil || out.Error == nil {
		t.Fatalf("unexpected envelope: %s", rr.Body.String())
	}
	if out.Error.Code != "NOT_FOUND" || out.Error.Details["username"] != "bob" {
		t.Fatalf("unexpected error: %+v", out.Error)
	}
}

func TestRequestIDPrefersChiContext(t *testing.T) {
	var got string
	h := chimiddleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = RequestID(r)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got == "" || got == "req-unknown" {
		t.Fatalf("expected chi id, got %q", got)
	}

	if id := RequestID(httptest.NewRequest(http.MethodGet, "/", nil)); id != "req-unknown" {
		t.Fatalf("expected placeholder, got %q", id)
	}
}
