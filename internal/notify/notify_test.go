package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/groundcrewhq/groundcrew/internal/models"
	"github.com/groundcrewhq/groundcrew/internal/store"
)

type fakeQueue struct {
	pending []store.Notification
	sent    []string
	failed  map[string]string
}

func (f *fakeQueue) PendingBatch(_ context.Context, batchSize int) ([]store.Notification, error) {
	if len(f.pending) > batchSize {
		return f.pending[:batchSize], nil
	}
	return f.pending, nil
}

func (f *fakeQueue) MarkSent(_ context.Context, id string) error {
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeQueue) MarkFailed(_ context.Context, id string, dispatchErr string, _ int) error {
	if f.failed == nil {
		f.failed = make(map[string]string)
	}
	f.failed[id] = dispatchErr
	return nil
}

type fakeSender struct {
	failIDs map[string]bool
	sent    []store.Notification
}

func (f *fakeSender) Send(_ context.Context, notification store.Notification) error {
	if f.failIDs[notification.ID] {
		return errors.New("provider timeout")
	}
	f.sent = append(f.sent, notification)
	return nil
}

func TestWorkerRunOnceMixedOutcomes(t *testing.T) {
	queue := &fakeQueue{pending: []store.Notification{
		{ID: "n-1", Channel: models.ChannelSMS, Recipients: []string{"+919876543210"}, Message: "shift change"},
		{ID: "n-2", Channel: models.ChannelEmail, Recipients: []string{"ops@groundcrew.example"}, Message: "coverage alert"},
		{ID: "n-3", Channel: models.ChannelSMS, Recipients: []string{"+919876543211"}, Message: "task assigned"},
	}}
	sender := &fakeSender{failIDs: map[string]bool{"n-2": true}}

	worker := NewWorker(queue, sender, 50, 3, time.Second, zap.NewNop())
	sent, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, sent)
	require.Equal(t, []string{"n-1", "n-3"}, queue.sent)
	require.Equal(t, "provider timeout", queue.failed["n-2"])
}

func TestWorkerRunOnceEmptyQueue(t *testing.T) {
	queue := &fakeQueue{}
	sender := &fakeSender{}

	worker := NewWorker(queue, sender, 50, 3, time.Second, zap.NewNop())
	sent, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, sent)
	require.Empty(t, sender.sent)
}

func TestWorkerRespectsBatchSize(t *testing.T) {
	queue := &fakeQueue{pending: []store.Notification{
		{ID: "n-1"}, {ID: "n-2"}, {ID: "n-3"},
	}}
	sender := &fakeSender{}

	worker := NewWorker(queue, sender, 2, 3, time.Second, zap.NewNop())
	sent, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, sent)
}

func TestProviderSender(t *testing.T) {
	var received providerPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sender := NewProviderSender(server.URL, "api-key")
	err := sender.Send(context.Background(), store.Notification{
		ID:         "n-1",
		Channel:    models.ChannelSMS,
		Recipients: []string{"+919876543210"},
		Message:    "shift change at 14:00",
	})
	require.NoError(t, err)
	require.Equal(t, models.ChannelSMS, received.Channel)
	require.Equal(t, []string{"+919876543210"}, received.Recipients)
}

func TestProviderSenderRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sender := NewProviderSender(server.URL, "api-key")
	err := sender.Send(context.Background(), store.Notification{ID: "n-1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "rejected")
}
