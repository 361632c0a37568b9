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

// IssuesHandler handles issue reporting, assignment, and transitions.
// Reporting is public; everything else sits behind a session.
type IssuesHandler struct {
	Store     *store.IssueStore
	Publisher ws.Publisher
	Log       *zap.Logger
}

type issueRequest struct {
	FacilityID        *string `json:"facility_id,omitempty"`
	Zone              string  `json:"zone"`
	Category          string  `json:"category"`
	Severity          string  `json:"severity"`
	Description       string  `json:"description"`
	ReporterAnonymous bool    `json:"reporter_anonymous"`
	ReporterName      *string `json:"reporter_name,omitempty"`
	ReporterContact   *string `json:"reporter_contact,omitempty"`
}

func (req *issueRequest) validate() (store.IssueParams, string) {
	zone := strings.TrimSpace(req.Zone)
	if zone == "" {
		return store.IssueParams{}, "zone is required"
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return store.IssueParams{}, "category is required"
	}
	severity := models.IssueSeverity(strings.ToLower(req.Severity))
	if !severity.Valid() {
		return store.IssueParams{}, "unknown severity"
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return store.IssueParams{}, "description is required"
	}

	params := store.IssueParams{
		FacilityID:        req.FacilityID,
		Zone:              zone,
		Category:          category,
		Severity:          severity,
		Description:       description,
		ReporterAnonymous: req.ReporterAnonymous,
	}
	if !req.ReporterAnonymous {
		params.ReporterName = req.ReporterName
		params.ReporterContact = req.ReporterContact
	}
	return params, ""
}

// issueView decorates an issue with its freshly evaluated SLA status.
type issueView struct {
	store.Issue
	SLAStatus sla.Status `json:"sla_status"`
	SLADue    time.Time  `json:"sla_due"`
}

func viewIssue(issue store.Issue, now time.Time) issueView {
	return issueView{
		Issue:     issue,
		SLAStatus: sla.Evaluate(issue.Severity, issue.ReportedAt, issue.Status, now),
		SLADue:    sla.Deadline(issue.ReportedAt, issue.Severity),
	}
}

// List returns issues matching the query filters with computed SLA state.
func (h *IssuesHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.IssueFilter{
		Zone:     r.URL.Query().Get("zone"),
		Severity: models.IssueSeverity(r.URL.Query().Get("severity")),
		Status:   models.IssueStatus(r.URL.Query().Get("status")),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}

	issues, err := h.Store.List(r.Context(), filter)
	if err != nil {
		h.Log.Error("failed to list issues", zap.Error(err))
		sendStoreError(w, err, "failed to list issues")
		return
	}

	now := time.Now()
	views := make([]issueView, 0, len(issues))
	for _, issue := range issues {
		views = append(views, viewIssue(issue, now))
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"issues": views, "total": len(views)})
}

// Get returns one issue.
func (h *IssuesHandler) Get(w http.ResponseWriter, r *http.Request) {
	issue, err := h.Store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		sendStoreError(w, err, "failed to load issue")
		return
	}
	sendJSON(w, http.StatusOK, viewIssue(*issue, time.Now()))
}

// Create reports an issue. High and critical severities get a triage task
// committed in the same transaction.
func (h *IssuesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params, problem := req.validate()
	if problem != "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: problem})
		return
	}

	issue, task, err := h.Store.Create(r.Context(), params)
	if err != nil {
		h.Log.Error("failed to create issue", zap.Error(err))
		sendStoreError(w, err, "failed to create issue")
		return
	}

	h.publish(r, ws.EventIssueReported, issue.Zone, issue)
	if task != nil {
		h.publish(r, ws.EventTaskCreated, task.Zone, task)
	}

	sendJSON(w, http.StatusCreated, map[string]interface{}{
		"issue": viewIssue(*issue, time.Now()),
		"task":  task,
	})
}

// Assign moves an open issue to assigned.
func (h *IssuesHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssigneeID string `json:"assignee_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.AssigneeID) == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "assignee_id is required"})
		return
	}

	issue, err := h.Store.Assign(r.Context(), chi.URLParam(r, "id"), req.AssigneeID)
	if err != nil {
		sendStoreError(w, err, "failed to assign issue")
		return
	}

	h.publish(r, ws.EventIssueStatusChanged, issue.Zone, issue)
	sendJSON(w, http.StatusOK, viewIssue(*issue, time.Now()))
}

// Transition moves an issue forward through its lifecycle.
func (h *IssuesHandler) Transition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	to := models.IssueStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	issue, err := h.Store.Transition(r.Context(), chi.URLParam(r, "id"), to)
	if err != nil {
		sendStoreError(w, err, "failed to change issue status")
		return
	}

	h.publish(r, ws.EventIssueStatusChanged, issue.Zone, issue)
	sendJSON(w, http.StatusOK, viewIssue(*issue, time.Now()))
}

func (h *IssuesHandler) publish(r *http.Request, eventType ws.EventType, zone string, payload interface{}) {
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
