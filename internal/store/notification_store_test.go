package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/groundcrewhq/groundcrew/internal/models"
)

func notificationColumns() []string {
	return []string{"id", "recipients", "channel", "message", "status", "attempts", "last_error", "created_at", "sent_at"}
}

func TestNotificationStoreEnqueue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO notifications")).
		WithArgs(pq.Array([]string{"+919876543210"}), "sms", "Shift change at 14:00").
		WillReturnRows(sqlmock.NewRows(notificationColumns()).
			AddRow("n-1", "{+919876543210}", "sms", "Shift change at 14:00", "pending", 0, nil, time.Now(), nil))

	store := NewNotificationStore(db)
	notification, err := store.Enqueue(context.Background(), []string{"+919876543210"}, models.ChannelSMS, "Shift change at 14:00")
	require.NoError(t, err)
	require.Equal(t, models.NotificationPending, notification.Status)
	require.Equal(t, 0, notification.Attempts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationStoreMarkSent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("SET status = 'sent'")).
		WithArgs("n-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewNotificationStore(db)
	require.NoError(t, store.MarkSent(context.Background(), "n-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationStoreMarkSentMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("SET status = 'sent'")).
		WithArgs("n-404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewNotificationStore(db)
	require.ErrorIs(t, store.MarkSent(context.Background(), "n-404"), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationStoreMarkFailed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("attempts = attempts + 1")).
		WithArgs("n-1", "provider timeout", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewNotificationStore(db)
	require.NoError(t, store.MarkFailed(context.Background(), "n-1", "provider timeout", 3))
	require.NoError(t, mock.ExpectationsWereMet())
}
