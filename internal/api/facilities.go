package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/groundcrewhq/groundcrew/internal/models"
	"github.com/groundcrewhq/groundcrew/internal/store"
	"github.com/groundcrewhq/groundcrew/internal/ws"
)

// FacilitiesHandler handles facility CRUD and status transitions.
type FacilitiesHandler struct {
	Store     *store.FacilityStore
	Publisher ws.Publisher
	Log       *zap.Logger
}

type facilityRequest struct {
	Code      string  `json:"code"`
	Type      string  `json:"type"`
	Zone      string  `json:"zone"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Capacity  *int    `json:"capacity,omitempty"`
}

func (req *facilityRequest) validate() (store.FacilityParams, string) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return store.FacilityParams{}, "code is required"
	}
	facilityType := models.FacilityType(strings.ToLower(req.Type))
	if !facilityType.Valid() {
		return store.FacilityParams{}, "unknown facility type"
	}
	zone := strings.TrimSpace(req.Zone)
	if zone == "" {
		return store.FacilityParams{}, "zone is required"
	}
	return store.FacilityParams{
		Code:      code,
		Type:      facilityType,
		Zone:      zone,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Capacity:  req.Capacity,
	}, ""
}

// List returns non-deleted facilities.
func (h *FacilitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.FacilityFilter{
		Zone:   r.URL.Query().Get("zone"),
		Type:   models.FacilityType(r.URL.Query().Get("type")),
		Status: models.FacilityStatus(r.URL.Query().Get("status")),
	}
	facilities, err := h.Store.List(r.Context(), filter)
	if err != nil {
		h.Log.Error("failed to list facilities", zap.Error(err))
		sendStoreError(w, err, "failed to list facilities")
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"facilities": facilities, "total": len(facilities)})
}

// Get returns one facility.
func (h *FacilitiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	facility, err := h.Store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		sendStoreError(w, err, "failed to load facility")
		return
	}
	sendJSON(w, http.StatusOK, facility)
}

// Create adds a facility. Codes are unique case-insensitively.
func (h *FacilitiesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req facilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params, problem := req.validate()
	if problem != "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: problem})
		return
	}

	facility, err := h.Store.Create(r.Context(), params)
	if err != nil {
		sendStoreError(w, err, "failed to create facility")
		return
	}
	sendJSON(w, http.StatusCreated, facility)
}

// Update replaces a facility's editable fields.
func (h *FacilitiesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req facilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params, problem := req.validate()
	if problem != "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: problem})
		return
	}

	facility, err := h.Store.Update(r.Context(), chi.URLParam(r, "id"), params)
	if err != nil {
		sendStoreError(w, err, "failed to update facility")
		return
	}
	sendJSON(w, http.StatusOK, facility)
}

// Transition moves a facility to a new status. Maintenance and full
// states create a follow-up task in the same transaction.
func (h *FacilitiesHandler) Transition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	to := models.FacilityStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	facility, task, err := h.Store.Transition(r.Context(), chi.URLParam(r, "id"), to)
	if err != nil {
		sendStoreError(w, err, "failed to change facility status")
		return
	}

	h.publish(r, ws.EventFacilityStatusChanged, facility.Zone, facility)
	if task != nil {
		h.publish(r, ws.EventTaskCreated, task.Zone, task)
	}

	sendJSON(w, http.StatusOK, map[string]interface{}{"facility": facility, "task": task})
}

// Delete soft-deletes a facility.
func (h *FacilitiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.SoftDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		sendStoreError(w, err, "failed to delete facility")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FacilitiesHandler) publish(r *http.Request, eventType ws.EventType, zone string, payload interface{}) {
	if h.Publisher == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := h.Publisher.Publish(r.Context(), ws.Event{Type: eventType, Zone: zone, Payload: raw}); err != nil {
		h.Log.Warn("failed to publish event", zap.String("type", string(eventType)), zap.Error(err))
	}
}
