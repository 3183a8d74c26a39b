package menu

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

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
	mux.HandleFunc("GET /menu/items", h.listItems)
	mux.HandleFunc("POST /menu/items", h.createItem)
	mux.HandleFunc("GET /menu/items/{id}", h.getItem)
	mux.HandleFunc("PATCH /menu/items/{id}", h.updateItem)
	mux.HandleFunc("DELETE /menu/items/{id}", h.deleteItem)
	mux.HandleFunc("POST /menu/items/{id}/toggle-availability", h.toggleAvailability)
	mux.HandleFunc("GET /menu/categories", h.listCategories)
	mux.HandleFunc("POST /menu/categories", h.createCategory)
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	var f ItemFilter
	q := r.URL.Query()
	if v := q.Get("available"); v != "" {
		avail := v == "true" || v == "1"
		f.Available = &avail
	}
	if v := q.Get("category"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.WriteProblem(w, http.StatusBadRequest, "bad_request", "invalid category filter")
			return
		}
		f.CategoryID = &id
	}

	items, err := h.service.ListItems(r.Context(), f)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		h.writeItemError(w, err)
		return
	}
	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		h.writeItemError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	item, err := h.service.CreateItem(r.Context(), auth.CallerFrom(r.Context()), req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		h.writeItemError(w, err)
		return
	}
	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	item, err := h.service.UpdateItem(r.Context(), auth.CallerFrom(r.Context()), id, req)
	if err != nil {
		h.writeItemError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		h.writeItemError(w, err)
		return
	}
	if err := h.service.DeleteItem(r.Context(), auth.CallerFrom(r.Context()), id); err != nil {
		h.writeItemError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) toggleAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		h.writeItemError(w, err)
		return
	}
	available, err := h.service.ToggleAvailability(r.Context(), auth.CallerFrom(r.Context()), id)
	if err != nil {
		h.writeItemError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "available": available})
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, categories)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	c, err := h.service.CreateCategory(r.Context(), auth.CallerFrom(r.Context()), req.Name)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) writeItemError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		httpx.WriteProblem(w, http.StatusNotFound, "not_found", "Item not found")
		return
	}
	httpx.WriteError(w, err)
}
