package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/groundcrewhq/groundcrew/internal/coverage"
	"github.com/groundcrewhq/groundcrew/internal/store"
)

// AnalyticsHandler aggregates the dashboard summary: open work by
// severity and status, staff on duty, and per-zone coverage.
type AnalyticsHandler struct {
	Staff      *store.StaffStore
	Facilities *store.FacilityStore
	Tasks      *store.TaskStore
	Issues     *store.IssueStore
	Headcounts *store.HeadcountStore
	Shifts     *store.ShiftStore
	Log        *zap.Logger
}

// Summary returns the dashboard aggregates in one round trip.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	zone := r.URL.Query().Get("zone")

	facilitiesByStatus, err := h.Facilities.CountByStatus(r.Context(), zone)
	if err != nil {
		h.Log.Error("failed to count facilities", zap.Error(err))
		sendStoreError(w, err, "failed to build summary")
		return
	}

	tasksByStatus, err := h.Tasks.CountByStatus(r.Context(), zone)
	if err != nil {
		h.Log.Error("failed to count tasks", zap.Error(err))
		sendStoreError(w, err, "failed to build summary")
		return
	}

	issuesBySeverity, err := h.Issues.CountOpenBySeverity(r.Context(), zone)
	if err != nil {
		h.Log.Error("failed to count issues", zap.Error(err))
		sendStoreError(w, err, "failed to build summary")
		return
	}

	onDutyByZone, err := h.Staff.CountOnDutyByZone(r.Context())
	if err != nil {
		h.Log.Error("failed to count on-duty staff", zap.Error(err))
		sendStoreError(w, err, "failed to build summary")
		return
	}

	latest, err := h.Headcounts.LatestPerZone(r.Context())
	if err != nil {
		h.Log.Error("failed to load headcounts", zap.Error(err))
		sendStoreError(w, err, "failed to build summary")
		return
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	reports := make([]coverage.Report, 0, len(latest))
	for _, headcount := range latest {
		if zone != "" && headcount.Zone != zone {
			continue
		}
		assigned, err := h.Shifts.AssignedCountForZone(r.Context(), headcount.Zone, today)
		if err != nil {
			h.Log.Error("failed to count assigned staff", zap.Error(err))
			sendStoreError(w, err, "failed to build summary")
			return
		}
		reports = append(reports, coverage.ForZone(headcount.Zone, headcount.Count, assigned))
	}

	sendJSON(w, http.StatusOK, map[string]interface{}{
		"facilities_by_status": facilitiesByStatus,
		"tasks_by_status":      tasksByStatus,
		"issues_by_severity":   issuesBySeverity,
		"on_duty_by_zone":      onDutyByZone,
		"coverage":             reports,
		"generated_at":         time.Now().UTC().Format(time.RFC3339),
	})
}
