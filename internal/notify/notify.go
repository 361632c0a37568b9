// Package notify drains the notification queue to the external channel
// provider. Rows stay pending until they either send or exhaust their
// attempts; nothing is retried inside a single dispatch pass.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/groundcrewhq/groundcrew/internal/models"
	"github.com/groundcrewhq/groundcrew/internal/store"
)

// Sender delivers one notification to the provider.
type Sender interface {
	Send(ctx context.Context, notification store.Notification) error
}

// Queue is the slice of the notification store the worker needs.
type Queue interface {
	PendingBatch(ctx context.Context, batchSize int) ([]store.Notification, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, dispatchErr string, maxAttempts int) error
}

// Worker periodically drains pending notifications.
type Worker struct {
	queue       Queue
	sender      Sender
	batchSize   int
	maxAttempts int
	interval    time.Duration
	log         *zap.Logger
}

// NewWorker builds a dispatch worker.
func NewWorker(queue Queue, sender Sender, batchSize, maxAttempts int, interval time.Duration, log *zap.Logger) *Worker {
	if batchSize <= 0 {
		batchSize = 50
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Worker{
		queue:       queue,
		sender:      sender,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		interval:    interval,
		log:         log,
	}
}

// Run dispatches batches until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.log.Error("dispatch pass failed", zap.Error(err))
			}
		}
	}
}

// RunOnce pulls one batch of pending notifications and dispatches each.
// Returns the number sent successfully.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	batch, err := w.queue.PendingBatch(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to pull pending batch: %w", err)
	}
	if len(batch) == 0 {
		return 0, nil
	}

	sent := 0
	for _, notification := range batch {
		if err := w.sender.Send(ctx, notification); err != nil {
			w.log.Warn("notification send failed",
				zap.String("id", notification.ID),
				zap.String("channel", string(notification.Channel)),
				zap.Int("attempts", notification.Attempts),
				zap.Error(err),
			)
			if markErr := w.queue.MarkFailed(ctx, notification.ID, err.Error(), w.maxAttempts); markErr != nil {
				w.log.Error("failed to record send failure", zap.String("id", notification.ID), zap.Error(markErr))
			}
			continue
		}
		if err := w.queue.MarkSent(ctx, notification.ID); err != nil {
			w.log.Error("failed to mark notification sent", zap.String("id", notification.ID), zap.Error(err))
			continue
		}
		sent++
	}

	w.log.Info("dispatch pass complete", zap.Int("batch", len(batch)), zap.Int("sent", sent))
	return sent, nil
}

// ProviderSender posts notifications to the channel provider's HTTP API.
type ProviderSender struct {
	httpClient *resty.Client
}

// NewProviderSender creates a sender for the given provider endpoint.
func NewProviderSender(baseURL, apiKey string) *ProviderSender {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(apiKey)
	return &ProviderSender{httpClient: httpClient}
}

type providerPayload struct {
	Channel    models.NotificationChannel `json:"channel"`
	Recipients []string                   `json:"recipients"`
	Message    string                     `json:"message"`
}

// Send posts one notification. Any non-2xx response is a failure.
func (s *ProviderSender) Send(ctx context.Context, notification store.Notification) error {
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetBody(providerPayload{
			Channel:    notification.Channel,
			Recipients: notification.Recipients,
			Message:    notification.Message,
		}).
		Post("/v1/messages")
	if err != nil {
		return fmt.Errorf("failed to reach provider: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("provider rejected message: %s", resp.Status())
	}
	return nil
}
