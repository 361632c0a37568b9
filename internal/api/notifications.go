package api

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/groundcrewhq/groundcrew/internal/models"
	"github.com/groundcrewhq/groundcrew/internal/store"
)

// NotificationsHandler enqueues outbound messages. Delivery happens in
// the background dispatch worker, never in the request path.
type NotificationsHandler struct {
	Store *store.NotificationStore
	Log   *zap.Logger
}

type notificationRequest struct {
	Recipients []string `json:"recipients"`
	Channel    string   `json:"channel"`
	Message    string   `json:"message"`
}

// Enqueue accepts a notification for later dispatch.
func (h *NotificationsHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	recipients := make([]string, 0, len(req.Recipients))
	for _, recipient := range req.Recipients {
		recipient = strings.TrimSpace(recipient)
		if recipient != "" {
			recipients = append(recipients, recipient)
		}
	}
	if len(recipients) == 0 {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "at least one recipient is required"})
		return
	}
	channel := models.NotificationChannel(strings.ToLower(req.Channel))
	if !channel.Valid() {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown channel"})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}

	notification, err := h.Store.Enqueue(r.Context(), recipients, channel, message)
	if err != nil {
		h.Log.Error("failed to enqueue notification", zap.Error(err))
		sendStoreError(w, err, "failed to enqueue notification")
		return
	}
	sendJSON(w, http.StatusAccepted, notification)
}

// List returns notifications, optionally filtered by status.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	status := models.NotificationStatus(r.URL.Query().Get("status"))
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	notifications, err := h.Store.List(r.Context(), status, limit)
	if err != nil {
		h.Log.Error("failed to list notifications", zap.Error(err))
		sendStoreError(w, err, "failed to list notifications")
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifications, "total": len(notifications)})
}
