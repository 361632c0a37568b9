package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/groundcrewhq/groundcrew/internal/store"
)

// ShiftsHandler handles shift CRUD and staff assignment. Overlapping
// shifts are accepted as submitted.
type ShiftsHandler struct {
	Store *store.ShiftStore
	Log   *zap.Logger
}

const shiftDateLayout = "2006-01-02"

var timeOfDayLayouts = []string{"15:04", "15:04:05"}

type shiftRequest struct {
	Zone          string   `json:"zone"`
	Name          string   `json:"name"`
	Date          string   `json:"date"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	StaffIDs      []string `json:"staff_ids"`
	RequiredStaff int      `json:"required_staff"`
}

func (req *shiftRequest) validate() (store.ShiftParams, string) {
	zone := strings.TrimSpace(req.Zone)
	if zone == "" {
		return store.ShiftParams{}, "zone is required"
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return store.ShiftParams{}, "name is required"
	}
	date, err := time.Parse(shiftDateLayout, req.Date)
	if err != nil {
		return store.ShiftParams{}, "date must be YYYY-MM-DD"
	}
	if !validTimeOfDay(req.StartTime) || !validTimeOfDay(req.EndTime) {
		return store.ShiftParams{}, "start_time and end_time must be HH:MM"
	}
	if req.RequiredStaff < 0 {
		return store.ShiftParams{}, "required_staff cannot be negative"
	}
	return store.ShiftParams{
		Zone:          zone,
		Name:          name,
		Date:          date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		StaffIDs:      req.StaffIDs,
		RequiredStaff: req.RequiredStaff,
	}, ""
}

func validTimeOfDay(raw string) bool {
	for _, layout := range timeOfDayLayouts {
		if _, err := time.Parse(layout, raw); err == nil {
			return true
		}
	}
	return false
}

// List returns shifts, optionally filtered by zone and date.
func (h *ShiftsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.ShiftFilter{Zone: r.URL.Query().Get("zone")}
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err := time.Parse(shiftDateLayout, raw)
		if err != nil {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD"})
			return
		}
		filter.Date = &date
	}

	shifts, err := h.Store.List(r.Context(), filter)
	if err != nil {
		h.Log.Error("failed to list shifts", zap.Error(err))
		sendStoreError(w, err, "failed to list shifts")
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"shifts": shifts, "total": len(shifts)})
}

// Get returns one shift.
func (h *ShiftsHandler) Get(w http.ResponseWriter, r *http.Request) {
	shift, err := h.Store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		sendStoreError(w, err, "failed to load shift")
		return
	}
	sendJSON(w, http.StatusOK, shift)
}

// Create adds a shift.
func (h *ShiftsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req shiftRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params, problem := req.validate()
	if problem != "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: problem})
		return
	}

	shift, err := h.Store.Create(r.Context(), params)
	if err != nil {
		h.Log.Error("failed to create shift", zap.Error(err))
		sendStoreError(w, err, "failed to create shift")
		return
	}
	sendJSON(w, http.StatusCreated, shift)
}

// Update replaces a shift's fields.
func (h *ShiftsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req shiftRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params, problem := req.validate()
	if problem != "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: problem})
		return
	}

	shift, err := h.Store.Update(r.Context(), chi.URLParam(r, "id"), params)
	if err != nil {
		sendStoreError(w, err, "failed to update shift")
		return
	}
	sendJSON(w, http.StatusOK, shift)
}

// SetStaff replaces the staff assigned to a shift.
func (h *ShiftsHandler) SetStaff(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StaffIDs []string `json:"staff_ids"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	shift, err := h.Store.SetStaff(r.Context(), chi.URLParam(r, "id"), req.StaffIDs)
	if err != nil {
		sendStoreError(w, err, "failed to set shift staff")
		return
	}
	sendJSON(w, http.StatusOK, shift)
}

// Delete removes a shift.
func (h *ShiftsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		sendStoreError(w, err, "failed to delete shift")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
