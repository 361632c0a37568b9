package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/groundcrewhq/groundcrew/internal/coverage"
	"github.com/groundcrewhq/groundcrew/internal/models"
	"github.com/groundcrewhq/groundcrew/internal/store"
	"github.com/groundcrewhq/groundcrew/internal/ws"
)

// HeadcountsHandler records crowd measurements and serves the coverage
// reconciliation the dashboard is built around.
type HeadcountsHandler struct {
	Headcounts *store.HeadcountStore
	Shifts     *store.ShiftStore
	Publisher  ws.Publisher
	Log        *zap.Logger
}

type headcountRequest struct {
	Zone       string     `json:"zone"`
	Count      int        `json:"count"`
	Source     string     `json:"source,omitempty"`
	Confidence *float64   `json:"confidence,omitempty"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

// Record stores a manual headcount entry and broadcasts the update.
func (h *HeadcountsHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req headcountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	zone := strings.TrimSpace(req.Zone)
	if zone == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "zone is required"})
		return
	}
	if req.Count < 0 {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "count cannot be negative"})
		return
	}

	source := models.SourceManual
	if req.Source != "" {
		source = models.HeadcountSource(strings.ToLower(req.Source))
		if !source.Valid() {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown source"})
			return
		}
	}
	confidence := 1.0
	if req.Confidence != nil {
		if *req.Confidence <= 0 || *req.Confidence > 1 {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: "confidence must be in (0, 1]"})
			return
		}
		confidence = *req.Confidence
	}

	params := store.HeadcountParams{
		Zone:       zone,
		Count:      req.Count,
		Source:     source,
		Confidence: confidence,
	}
	if req.RecordedAt != nil {
		params.RecordedAt = *req.RecordedAt
	}

	headcount, err := h.Headcounts.Record(r.Context(), params)
	if err != nil {
		h.Log.Error("failed to record headcount", zap.Error(err))
		sendStoreError(w, err, "failed to record headcount")
		return
	}

	if h.Publisher != nil {
		raw, _ := json.Marshal(headcount)
		if err := h.Publisher.Publish(r.Context(), ws.Event{
			Type:    ws.EventHeadcountRecorded,
			Zone:    zone,
			Payload: raw,
		}); err != nil {
			h.Log.Warn("failed to publish headcount event", zap.Error(err))
		}
	}

	sendJSON(w, http.StatusCreated, headcount)
}

// Latest returns the most recent measurement per zone.
func (h *HeadcountsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	latest, err := h.Headcounts.LatestPerZone(r.Context())
	if err != nil {
		h.Log.Error("failed to load latest headcounts", zap.Error(err))
		sendStoreError(w, err, "failed to load headcounts")
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"headcounts": latest, "total": len(latest)})
}

// History returns recent measurements for one zone.
func (h *HeadcountsHandler) History(w http.ResponseWriter, r *http.Request) {
	zone := strings.TrimSpace(r.URL.Query().Get("zone"))
	if zone == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "zone is required"})
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	history, err := h.Headcounts.History(r.Context(), zone, limit)
	if err != nil {
		sendStoreError(w, err, "failed to load headcount history")
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"headcounts": history, "total": len(history)})
}

// Coverage reconciles each zone's latest headcount against the staff
// assigned to shifts on the given date (today by default). Required staff
// is one per eight people, rounded up.
func (h *HeadcountsHandler) Coverage(w http.ResponseWriter, r *http.Request) {
	date := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(shiftDateLayout, raw)
		if err != nil {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	latest, err := h.Headcounts.LatestPerZone(r.Context())
	if err != nil {
		h.Log.Error("failed to load latest headcounts", zap.Error(err))
		sendStoreError(w, err, "failed to compute coverage")
		return
	}

	zoneFilter := strings.TrimSpace(r.URL.Query().Get("zone"))
	reports := make([]coverage.Report, 0, len(latest))
	for _, headcount := range latest {
		if zoneFilter != "" && headcount.Zone != zoneFilter {
			continue
		}
		assigned, err := h.Shifts.AssignedCountForZone(r.Context(), headcount.Zone, date)
		if err != nil {
			h.Log.Error("failed to count assigned staff", zap.String("zone", headcount.Zone), zap.Error(err))
			sendStoreError(w, err, "failed to compute coverage")
			return
		}
		reports = append(reports, coverage.ForZone(headcount.Zone, headcount.Count, assigned))
	}

	sendJSON(w, http.StatusOK, map[string]interface{}{
		"date":     date.Format(shiftDateLayout),
		"coverage": reports,
		"total":    len(reports),
	})
}
