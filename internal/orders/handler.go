package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"restaurant-orders/internal/auth"
	"restaurant-orders/internal/domain"
	"restaurant-orders/internal/httpx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /orders/{$}", auth.Require(h.list))
	mux.HandleFunc("POST /orders/{$}", auth.Require(h.create))
	mux.HandleFunc("GET /orders/stats", auth.Require(h.stats))
	mux.HandleFunc("GET /orders/manager", auth.Require(h.managerList))
	mux.HandleFunc("GET /orders/kitchen", auth.Require(h.kitchenList))
	mux.HandleFunc("GET /orders/waiter", auth.Require(h.waiterList))
	mux.HandleFunc("GET /orders/{id}", auth.Require(h.get))
	mux.HandleFunc("PATCH /orders/{id}", auth.Require(h.update))
	mux.HandleFunc("GET /orders/{id}/history", auth.Require(h.history))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	o, err := h.service.Create(r.Context(), auth.CallerFrom(r.Context()), req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, o)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	out, err := h.service.List(r.Context(), auth.CallerFrom(r.Context()), params)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	o, err := h.service.Get(r.Context(), auth.CallerFrom(r.Context()), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	var req UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	o, err := h.service.Update(r.Context(), auth.CallerFrom(r.Context()), id, req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.Stats(r.Context(), auth.CallerFrom(r.Context()))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, counts)
}

func (h *Handler) managerList(w http.ResponseWriter, r *http.Request) {
	h.roleList(w, r, h.service.ManagerList)
}

func (h *Handler) kitchenList(w http.ResponseWriter, r *http.Request) {
	h.roleList(w, r, h.service.KitchenList)
}

func (h *Handler) waiterList(w http.ResponseWriter, r *http.Request) {
	h.roleList(w, r, h.service.WaiterList)
}

func (h *Handler) roleList(w http.ResponseWriter, r *http.Request,
	list func(ctx context.Context, c *domain.Caller) ([]domain.Order, error)) {
	out, err := list(r.Context(), auth.CallerFrom(r.Context()))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	entries, err := h.service.History(r.Context(), auth.CallerFrom(r.Context()), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, entries)
}

// parseListParams reads status, created_after/created_before (RFC 3339 or
// date-only, inclusive) and ordering=created_at|-created_at.
func parseListParams(r *http.Request) (ListParams, error) {
	q := r.URL.Query()
	var p ListParams

	if v := q.Get("status"); v != "" {
		status, err := domain.ParseOrderStatus(v)
		if err != nil {
			return p, domain.NewValidationError().Add("status", err.Error())
		}
		p.Status = &status
	}
	if v := q.Get("created_after"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			return p, domain.NewValidationError().Add("created_after", "invalid timestamp")
		}
		p.CreatedAfter = &t
	}
	if v := q.Get("created_before"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			return p, domain.NewValidationError().Add("created_before", "invalid timestamp")
		}
		p.CreatedBefore = &t
	}
	switch q.Get("ordering") {
	case "", "-created_at":
		p.Ascending = false
	case "created_at":
		p.Ascending = true
	default:
		return p, domain.NewValidationError().Add("ordering", "must be created_at or -created_at")
	}
	p.Limit = httpx.AtoiDefault(q.Get("limit"), 0)
	p.Offset = httpx.AtoiDefault(q.Get("offset"), 0)
	return p, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
