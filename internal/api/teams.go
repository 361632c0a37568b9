package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/groundcrewhq/groundcrew/internal/models"
	"github.com/groundcrewhq/groundcrew/internal/store"
)

// TeamsHandler handles team CRUD.
type TeamsHandler struct {
	Store *store.TeamStore
	Log   *zap.Logger
}

type teamRequest struct {
	Name         string   `json:"name"`
	LeaderID     *string  `json:"leader_id,omitempty"`
	MemberIDs    []string `json:"member_ids"`
	Zones        []string `json:"zones"`
	DefaultShift string   `json:"default_shift"`
	Capacity     int      `json:"capacity"`
}

func (req *teamRequest) validate() (store.TeamParams, string) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return store.TeamParams{}, "name is required"
	}
	shift := models.ShiftColor(strings.ToLower(req.DefaultShift))
	if !shift.Valid() {
		return store.TeamParams{}, "unknown default shift"
	}
	if req.Capacity < 0 {
		return store.TeamParams{}, "capacity cannot be negative"
	}
	return store.TeamParams{
		Name:         name,
		LeaderID:     req.LeaderID,
		MemberIDs:    req.MemberIDs,
		Zones:        req.Zones,
		DefaultShift: shift,
		Capacity:     req.Capacity,
	}, ""
}

// List returns all teams.
func (h *TeamsHandler) List(w http.ResponseWriter, r *http.Request) {
	teams, err := h.Store.List(r.Context())
	if err != nil {
		h.Log.Error("failed to list teams", zap.Error(err))
		sendStoreError(w, err, "failed to list teams")
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"teams": teams, "total": len(teams)})
}

// Get returns one team.
func (h *TeamsHandler) Get(w http.ResponseWriter, r *http.Request) {
	team, err := h.Store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		sendStoreError(w, err, "failed to load team")
		return
	}
	sendJSON(w, http.StatusOK, team)
}

// Create adds a team.
func (h *TeamsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params, problem := req.validate()
	if problem != "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: problem})
		return
	}

	team, err := h.Store.Create(r.Context(), params)
	if err != nil {
		h.Log.Error("failed to create team", zap.Error(err))
		sendStoreError(w, err, "failed to create team")
		return
	}
	sendJSON(w, http.StatusCreated, team)
}

// Update replaces a team's fields.
func (h *TeamsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params, problem := req.validate()
	if problem != "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: problem})
		return
	}

	team, err := h.Store.Update(r.Context(), chi.URLParam(r, "id"), params)
	if err != nil {
		sendStoreError(w, err, "failed to update team")
		return
	}
	sendJSON(w, http.StatusOK, team)
}

// Delete removes a team. Staff referencing it keep their other teams.
func (h *TeamsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		sendStoreError(w, err, "failed to delete team")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
