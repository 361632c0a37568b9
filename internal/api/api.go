// Package api exposes the admin console's HTTP surface.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/groundcrewhq/groundcrew/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

// sendStoreError maps store errors onto HTTP statuses. Unknown errors are
// reported generically; the caller logs the detail.
func sendStoreError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		sendJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, store.ErrDuplicateCode):
		sendJSON(w, http.StatusConflict, errorResponse{Error: "code already in use"})
	case errors.Is(err, store.ErrInvalidTransition):
		sendJSON(w, http.StatusConflict, errorResponse{Error: "invalid status transition"})
	default:
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: fallback})
	}
}
