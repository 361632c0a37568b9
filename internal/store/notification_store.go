package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/groundcrewhq/groundcrew/internal/models"
)

// Notification is a queued message to one or more recipients. The dispatch
// worker drains pending records to the external channel provider.
type Notification struct {
	ID         string                     `json:"id"`
	Recipients []string                   `json:"recipients"`
	Channel    models.NotificationChannel `json:"channel"`
	Message    string                     `json:"message"`
	Status     models.NotificationStatus  `json:"status"`
	Attempts   int                        `json:"attempts"`
	LastError  *string                    `json:"last_error,omitempty"`
	CreatedAt  time.Time                  `json:"created_at"`
	SentAt     *time.Time                 `json:"sent_at,omitempty"`
}

// NotificationStore enqueues notifications and tracks dispatch outcomes.
type NotificationStore struct {
	db *sql.DB
}

// NewNotificationStore creates a new NotificationStore.
func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

const notificationSelectColumns = `
	id,
	recipients,
	channel,
	message,
	status,
	attempts,
	last_error,
	created_at,
	sent_at
`

// Enqueue inserts a pending notification.
func (s *NotificationStore) Enqueue(ctx context.Context, recipients []string, channel models.NotificationChannel, message string) (*Notification, error) {
	notification, err := scanNotification(s.db.QueryRowContext(ctx, `
		INSERT INTO notifications (recipients, channel, message)
		VALUES ($1, $2, $3)
		RETURNING `+notificationSelectColumns+`
	`, pq.Array(recipients), string(channel), message))
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return &notification, nil
}

// List returns notifications, newest first.
func (s *NotificationStore) List(ctx context.Context, status models.NotificationStatus, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + notificationSelectColumns + ` FROM notifications`
	args := []interface{}{}
	if status != "" {
		args = append(args, string(status))
		query += ` WHERE status = $1`
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]Notification, 0)
	for rows.Next() {
		notification, scanErr := scanNotification(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", scanErr)
		}
		notifications = append(notifications, notification)
	}
	return notifications, rows.Err()
}

// PendingBatch returns the oldest pending notifications up to the batch size.
func (s *NotificationStore) PendingBatch(ctx context.Context, batchSize int) ([]Notification, error) {
	if batchSize <= 0 {
		batchSize = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+notificationSelectColumns+`
		FROM notifications
		WHERE status = 'pending'
		ORDER BY created_at, id
		LIMIT $1
	`, batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]Notification, 0)
	for rows.Next() {
		notification, scanErr := scanNotification(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", scanErr)
		}
		notifications = append(notifications, notification)
	}
	return notifications, rows.Err()
}

// MarkSent records a successful dispatch.
func (s *NotificationStore) MarkSent(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notifications
		SET status = 'sent', attempts = attempts + 1, last_error = NULL, sent_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return checkAffected(result)
}

// MarkFailed records a dispatch failure. Once attempts reach maxAttempts the
// record moves to failed; otherwise it stays pending for the next pass.
func (s *NotificationStore) MarkFailed(ctx context.Context, id string, dispatchErr string, maxAttempts int) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notifications
		SET attempts = attempts + 1,
		    last_error = $2,
		    status = CASE WHEN attempts + 1 >= $3 THEN 'failed' ELSE 'pending' END
		WHERE id = $1 AND status = 'pending'
	`, strings.TrimSpace(id), dispatchErr, maxAttempts)
	if err != nil {
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	return checkAffected(result)
}

// MarkDelivered records a provider delivery receipt for a sent notification.
func (s *NotificationStore) MarkDelivered(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notifications
		SET status = 'delivered'
		WHERE id = $1 AND status = 'sent'
	`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("failed to mark notification delivered: %w", err)
	}
	return checkAffected(result)
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanNotification(row rowScanner) (Notification, error) {
	var notification Notification
	var recipients pq.StringArray
	err := row.Scan(
		&notification.ID,
		&recipients,
		&notification.Channel,
		&notification.Message,
		&notification.Status,
		&notification.Attempts,
		&notification.LastError,
		&notification.CreatedAt,
		&notification.SentAt,
	)
	if err != nil {
		return Notification{}, err
	}
	notification.Recipients = recipients
	return notification, nil
}
