package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"restaurant-orders/internal/domain"
)

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteProblem writes the shared error envelope (simplified problem+json).
func WriteProblem(w http.ResponseWriter, code int, typ, detail string) {
	WriteJSON(w, code, map[string]any{
		"type":   typ,
		"title":  http.StatusText(code),
		"status": code,
		"detail": detail,
	})
}

// WriteError maps a domain error onto the HTTP taxonomy: unauthorized,
// forbidden, not-found, validation (with field detail) or internal.
func WriteError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		WriteProblem(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		WriteProblem(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		WriteProblem(w, http.StatusNotFound, "not_found", err.Error())
	case errors.As(err, &verr):
		WriteJSON(w, http.StatusBadRequest, map[string]any{
			"type":   "validation_failed",
			"title":  http.StatusText(http.StatusBadRequest),
			"status": http.StatusBadRequest,
			"detail": verr.Error(),
			"fields": verr.Fields,
		})
	default:
		WriteProblem(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// IDParam extracts a numeric {id} path value.
func IDParam(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(key), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrNotFound
	}
	return id, nil
}

// AtoiDefault parses an int query parameter with a fallback.
func AtoiDefault(s string, d int) int {
	if s == "" {
		return d
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return n
}
