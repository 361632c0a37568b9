package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/groundcrewhq/groundcrew/internal/models"
	"github.com/groundcrewhq/groundcrew/internal/store"
)

// AdsHandler handles announcement and sponsor placement lifecycle. The
// public site only ever sees published placements.
type AdsHandler struct {
	Store *store.AdStore
	Log   *zap.Logger
}

type adRequest struct {
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	ValidFrom   time.Time `json:"valid_from"`
	ValidUntil  time.Time `json:"valid_until"`
}

func (req *adRequest) validate() (store.AdParams, string) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return store.AdParams{}, "title is required"
	}
	adType := models.AdType(strings.ToLower(req.Type))
	if !adType.Valid() {
		return store.AdParams{}, "unknown type"
	}
	if req.ValidFrom.IsZero() || req.ValidUntil.IsZero() {
		return store.AdParams{}, "valid_from and valid_until are required"
	}
	if !req.ValidUntil.After(req.ValidFrom) {
		return store.AdParams{}, "valid_until must be after valid_from"
	}
	return store.AdParams{
		Title:       title,
		Type:        adType,
		Description: strings.TrimSpace(req.Description),
		ValidFrom:   req.ValidFrom,
		ValidUntil:  req.ValidUntil,
	}, ""
}

// List returns ads, optionally filtered by status.
func (h *AdsHandler) List(w http.ResponseWriter, r *http.Request) {
	ads, err := h.Store.List(r.Context(), models.AdStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.Log.Error("failed to list ads", zap.Error(err))
		sendStoreError(w, err, "failed to list ads")
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"ads": ads, "total": len(ads)})
}

// Published returns only published ads, for the public site.
func (h *AdsHandler) Published(w http.ResponseWriter, r *http.Request) {
	ads, err := h.Store.List(r.Context(), models.AdPublished)
	if err != nil {
		sendStoreError(w, err, "failed to list ads")
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"ads": ads, "total": len(ads)})
}

// Get returns one ad.
func (h *AdsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ad, err := h.Store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		sendStoreError(w, err, "failed to load ad")
		return
	}
	sendJSON(w, http.StatusOK, ad)
}

// Create adds a draft ad.
func (h *AdsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req adRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params, problem := req.validate()
	if problem != "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: problem})
		return
	}

	ad, err := h.Store.Create(r.Context(), params)
	if err != nil {
		h.Log.Error("failed to create ad", zap.Error(err))
		sendStoreError(w, err, "failed to create ad")
		return
	}
	sendJSON(w, http.StatusCreated, ad)
}

// Update replaces an ad's fields.
func (h *AdsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req adRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params, problem := req.validate()
	if problem != "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: problem})
		return
	}

	ad, err := h.Store.Update(r.Context(), chi.URLParam(r, "id"), params)
	if err != nil {
		sendStoreError(w, err, "failed to update ad")
		return
	}
	sendJSON(w, http.StatusOK, ad)
}

// Transition publishes or expires an ad.
func (h *AdsHandler) Transition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	to := models.AdStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	ad, err := h.Store.Transition(r.Context(), chi.URLParam(r, "id"), to)
	if err != nil {
		sendStoreError(w, err, "failed to change ad status")
		return
	}
	sendJSON(w, http.StatusOK, ad)
}

// Delete removes a draft ad.
func (h *AdsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		sendStoreError(w, err, "failed to delete ad")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
