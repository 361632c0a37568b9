package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/groundcrewhq/groundcrew/internal/middleware"
	"github.com/groundcrewhq/groundcrew/internal/models"
	"github.com/groundcrewhq/groundcrew/internal/store"
)

// StaffHandler handles staff CRUD and duty toggles.
type StaffHandler struct {
	Store *store.StaffStore
	Audit *store.AuditStore
	Log   *zap.Logger
}

type staffRequest struct {
	Name    string   `json:"name"`
	Phone   string   `json:"phone"`
	Email   *string  `json:"email,omitempty"`
	Role    string   `json:"role"`
	TeamIDs []string `json:"team_ids"`
	Shift   string   `json:"shift"`
	Zone    string   `json:"zone"`
}

func (req *staffRequest) validate() (store.StaffParams, string) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return store.StaffParams{}, "name is required"
	}
	if !models.ValidPhone(req.Phone) {
		return store.StaffParams{}, "phone must be E.164"
	}
	if req.Email != nil && *req.Email != "" && !models.ValidEmail(*req.Email) {
		return store.StaffParams{}, "email is not valid"
	}
	role := models.Role(strings.ToLower(req.Role))
	if !role.Valid() {
		return store.StaffParams{}, "unknown role"
	}
	shift := models.ShiftColor(strings.ToLower(req.Shift))
	if !shift.Valid() {
		return store.StaffParams{}, "unknown shift"
	}
	zone := strings.TrimSpace(req.Zone)
	if zone == "" {
		return store.StaffParams{}, "zone is required"
	}

	params := store.StaffParams{
		Name:    name,
		Phone:   req.Phone,
		Role:    role,
		TeamIDs: req.TeamIDs,
		Shift:   shift,
		Zone:    zone,
	}
	if req.Email != nil && *req.Email != "" {
		params.Email = req.Email
	}
	return params, ""
}

// List returns staff matching the query filters.
func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.StaffFilter{
		Zone:   r.URL.Query().Get("zone"),
		TeamID: r.URL.Query().Get("team_id"),
		Role:   models.Role(r.URL.Query().Get("role")),
	}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active := raw == "true"
		filter.Active = &active
	}
	if raw := r.URL.Query().Get("on_duty"); raw != "" {
		onDuty := raw == "true"
		filter.OnDuty = &onDuty
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}

	staff, err := h.Store.List(r.Context(), filter)
	if err != nil {
		h.Log.Error("failed to list staff", zap.Error(err))
		sendStoreError(w, err, "failed to list staff")
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"staff": staff, "total": len(staff)})
}

// Get returns one staff member.
func (h *StaffHandler) Get(w http.ResponseWriter, r *http.Request) {
	member, err := h.Store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		sendStoreError(w, err, "failed to load staff member")
		return
	}
	sendJSON(w, http.StatusOK, member)
}

// Create adds a staff member.
func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req staffRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params, problem := req.validate()
	if problem != "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: problem})
		return
	}

	member, err := h.Store.Create(r.Context(), params, actorFrom(r))
	if err != nil {
		h.Log.Error("failed to create staff", zap.Error(err))
		sendStoreError(w, err, "failed to create staff member")
		return
	}
	sendJSON(w, http.StatusCreated, member)
}

// Update replaces a staff member's editable fields.
func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req staffRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params, problem := req.validate()
	if problem != "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: problem})
		return
	}

	member, err := h.Store.Update(r.Context(), chi.URLParam(r, "id"), params, actorFrom(r))
	if err != nil {
		sendStoreError(w, err, "failed to update staff member")
		return
	}
	sendJSON(w, http.StatusOK, member)
}

// SetActive activates or deactivates a staff member. Deactivation is the
// only removal path; staff rows are never hard-deleted.
func (h *StaffHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active bool `json:"active"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	member, err := h.Store.SetActive(r.Context(), chi.URLParam(r, "id"), req.Active, actorFrom(r))
	if err != nil {
		sendStoreError(w, err, "failed to change staff active state")
		return
	}
	sendJSON(w, http.StatusOK, member)
}

// SetOnDuty toggles the duty flag.
func (h *StaffHandler) SetOnDuty(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OnDuty bool `json:"on_duty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	member, err := h.Store.SetOnDuty(r.Context(), chi.URLParam(r, "id"), req.OnDuty)
	if err != nil {
		sendStoreError(w, err, "failed to change duty state")
		return
	}
	sendJSON(w, http.StatusOK, member)
}

// AuditTrail returns the change history for one staff member.
func (h *StaffHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	trail, err := h.Audit.ListForStaff(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		sendStoreError(w, err, "failed to load audit trail")
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"audit": trail, "total": len(trail)})
}

func actorFrom(r *http.Request) string {
	if user := middleware.UserFromContext(r.Context()); user != nil {
		return user.Email
	}
	return "system"
}
