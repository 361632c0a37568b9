package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/groundcrewhq/groundcrew/internal/models"
	"github.com/groundcrewhq/groundcrew/internal/sla"
	"github.com/groundcrewhq/groundcrew/internal/store"
	"github.com/groundcrewhq/groundcrew/internal/ws"
)

// TasksHandler handles task CRUD, assignment, and transitions.
type TasksHandler struct {
	Store     *store.TaskStore
	Publisher ws.Publisher
	Log       *zap.Logger
}

type taskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	FacilityID  *string    `json:"facility_id,omitempty"`
	Zone        string     `json:"zone"`
	Priority    string     `json:"priority"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	SLAMinutes  int        `json:"sla_minutes"`
}

func (req *taskRequest) validate() (store.TaskParams, string) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return store.TaskParams{}, "title is required"
	}
	zone := strings.TrimSpace(req.Zone)
	if zone == "" {
		return store.TaskParams{}, "zone is required"
	}
	priority := models.TaskPriority(strings.ToLower(req.Priority))
	if !priority.Valid() {
		return store.TaskParams{}, "unknown priority"
	}
	if req.SLAMinutes < 0 {
		return store.TaskParams{}, "sla_minutes cannot be negative"
	}
	return store.TaskParams{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		FacilityID:  req.FacilityID,
		Zone:        zone,
		Priority:    priority,
		DueAt:       req.DueAt,
		SLAMinutes:  req.SLAMinutes,
	}, ""
}

// taskView decorates a task with its freshly evaluated deadline status.
type taskView struct {
	store.Task
	SLAStatus sla.Status `json:"sla_status"`
}

func viewTask(task store.Task, now time.Time) taskView {
	status := sla.StatusOnTrack
	if task.DueAt != nil {
		terminal := task.Status == models.TaskCompleted || task.Status == models.TaskVerified
		status = sla.EvaluateDeadline(*task.DueAt, terminal, now)
	}
	return taskView{Task: task, SLAStatus: status}
}

// List returns tasks matching the query filters, each with a computed
// SLA status. Nothing is persisted; status is evaluated per read.
func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.TaskFilter{
		Zone:       r.URL.Query().Get("zone"),
		Status:     models.TaskStatus(r.URL.Query().Get("status")),
		Priority:   models.TaskPriority(r.URL.Query().Get("priority")),
		AssigneeID: r.URL.Query().Get("assignee_id"),
		FacilityID: r.URL.Query().Get("facility_id"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}

	tasks, err := h.Store.List(r.Context(), filter)
	if err != nil {
		h.Log.Error("failed to list tasks", zap.Error(err))
		sendStoreError(w, err, "failed to list tasks")
		return
	}

	now := time.Now()
	views := make([]taskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, viewTask(task, now))
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"tasks": views, "total": len(views)})
}

// Get returns one task.
func (h *TasksHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.Store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		sendStoreError(w, err, "failed to load task")
		return
	}
	sendJSON(w, http.StatusOK, viewTask(*task, time.Now()))
}

// Create adds a task.
func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params, problem := req.validate()
	if problem != "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: problem})
		return
	}

	task, err := h.Store.Create(r.Context(), params)
	if err != nil {
		h.Log.Error("failed to create task", zap.Error(err))
		sendStoreError(w, err, "failed to create task")
		return
	}

	h.publish(r, ws.EventTaskCreated, task.Zone, task)
	sendJSON(w, http.StatusCreated, task)
}

// Assign sets a task's assignee to a staff member or a team.
func (h *TasksHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssigneeType string `json:"assignee_type"`
		AssigneeID   string `json:"assignee_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	assigneeType := models.AssigneeType(strings.ToLower(req.AssigneeType))
	if !assigneeType.Valid() {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "assignee_type must be staff or team"})
		return
	}
	if strings.TrimSpace(req.AssigneeID) == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "assignee_id is required"})
		return
	}

	task, err := h.Store.Assign(r.Context(), chi.URLParam(r, "id"), assigneeType, req.AssigneeID)
	if err != nil {
		sendStoreError(w, err, "failed to assign task")
		return
	}
	sendJSON(w, http.StatusOK, task)
}

// Transition moves a task forward through its lifecycle.
func (h *TasksHandler) Transition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	to := models.TaskStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	task, err := h.Store.Transition(r.Context(), chi.URLParam(r, "id"), to)
	if err != nil {
		sendStoreError(w, err, "failed to change task status")
		return
	}

	h.publish(r, ws.EventTaskStatusChanged, task.Zone, task)
	sendJSON(w, http.StatusOK, task)
}

func (h *TasksHandler) publish(r *http.Request, eventType ws.EventType, zone string, payload interface{}) {
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
