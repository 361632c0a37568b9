package api

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/groundcrewhq/groundcrew/internal/export"
	"github.com/groundcrewhq/groundcrew/internal/store"
)

// ExportHandler streams CSV reports. Generation happens server-side with
// proper quoting; embedded commas and newlines survive a round trip.
type ExportHandler struct {
	Staff  *store.StaffStore
	Tasks  *store.TaskStore
	Issues *store.IssueStore
	Log    *zap.Logger
}

func csvHeaders(w http.ResponseWriter, name string) {
	filename := fmt.Sprintf("%s-%s.csv", name, time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

// StaffCSV exports the staff roster.
func (h *ExportHandler) StaffCSV(w http.ResponseWriter, r *http.Request) {
	staff, err := h.Staff.List(r.Context(), store.StaffFilter{Zone: r.URL.Query().Get("zone")})
	if err != nil {
		h.Log.Error("failed to load staff for export", zap.Error(err))
		sendStoreError(w, err, "failed to export staff")
		return
	}
	csvHeaders(w, "staff")
	if err := export.StaffCSV(w, staff); err != nil {
		h.Log.Error("failed to write staff csv", zap.Error(err))
	}
}

// TasksCSV exports tasks.
func (h *ExportHandler) TasksCSV(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.List(r.Context(), store.TaskFilter{Zone: r.URL.Query().Get("zone")})
	if err != nil {
		h.Log.Error("failed to load tasks for export", zap.Error(err))
		sendStoreError(w, err, "failed to export tasks")
		return
	}
	csvHeaders(w, "tasks")
	if err := export.TasksCSV(w, tasks); err != nil {
		h.Log.Error("failed to write tasks csv", zap.Error(err))
	}
}

// IssuesCSV exports issues.
func (h *ExportHandler) IssuesCSV(w http.ResponseWriter, r *http.Request) {
	issues, err := h.Issues.List(r.Context(), store.IssueFilter{Zone: r.URL.Query().Get("zone")})
	if err != nil {
		h.Log.Error("failed to load issues for export", zap.Error(err))
		sendStoreError(w, err, "failed to export issues")
		return
	}
	csvHeaders(w, "issues")
	if err := export.IssuesCSV(w, issues); err != nil {
		h.Log.Error("failed to write issues csv", zap.Error(err))
	}
}
