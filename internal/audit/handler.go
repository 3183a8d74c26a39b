package audit

import (
	"net/http"

	"restaurant-orders/internal/access"
	"restaurant-orders/internal/auth"
	"restaurant-orders/internal/httpx"
)

type Handler struct {
	repo RepositoryInterface
}

func NewHandler(repo RepositoryInterface) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /audit", auth.Require(h.list))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if !access.IsManager(auth.CallerFrom(r.Context())) {
		httpx.WriteProblem(w, http.StatusForbidden, "forbidden", "manager role required")
		return
	}
	limit := httpx.AtoiDefault(r.URL.Query().Get("limit"), 100)
	if limit > 500 {
		limit = 500
	}
	entries, err := h.repo.ListRecent(r.Context(), limit)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
