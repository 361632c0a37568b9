package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/groundcrewhq/groundcrew/internal/models"
	"github.com/groundcrewhq/groundcrew/internal/store"
	"github.com/groundcrewhq/groundcrew/internal/ws"
)

type fakeRecorder struct {
	recorded []store.HeadcountParams
	nextID   int
}

func (f *fakeRecorder) Record(_ context.Context, params store.HeadcountParams) (*store.Headcount, error) {
	f.recorded = append(f.recorded, params)
	f.nextID++
	return &store.Headcount{
		ID:         "hc-fake",
		Zone:       params.Zone,
		Count:      params.Count,
		Source:     params.Source,
		Confidence: params.Confidence,
		RecordedAt: params.RecordedAt,
	}, nil
}

type capturePublisher struct {
	events []ws.Event
}

func (c *capturePublisher) Publish(_ context.Context, event ws.Event) error {
	c.events = append(c.events, event)
	return nil
}

func TestHandleMessageRecordsAndPublishes(t *testing.T) {
	recorder := &fakeRecorder{}
	publisher := &capturePublisher{}
	ingestor := &Ingestor{recorder: recorder, publisher: publisher, log: zap.NewNop()}

	err := ingestor.HandleMessage(context.Background(), "groundcrew/headcounts/North", []byte(`{"count":12000,"confidence":0.95}`))
	require.NoError(t, err)

	require.Len(t, recorder.recorded, 1)
	require.Equal(t, "North", recorder.recorded[0].Zone)
	require.Equal(t, 12000, recorder.recorded[0].Count)
	require.Equal(t, models.SourceAPI, recorder.recorded[0].Source)
	require.InDelta(t, 0.95, recorder.recorded[0].Confidence, 0.001)

	require.Len(t, publisher.events, 1)
	require.Equal(t, ws.EventHeadcountRecorded, publisher.events[0].Type)
	require.Equal(t, "North", publisher.events[0].Zone)
}

func TestHandleMessageSensorTimestampWins(t *testing.T) {
	recorder := &fakeRecorder{}
	ingestor := &Ingestor{recorder: recorder, log: zap.NewNop()}

	err := ingestor.HandleMessage(context.Background(), "groundcrew/headcounts/East",
		[]byte(`{"count":400,"confidence":0.6,"recorded_at":"2026-02-14T06:30:00Z"}`))
	require.NoError(t, err)

	want := time.Date(2026, 2, 14, 6, 30, 0, 0, time.UTC)
	require.Equal(t, want, recorder.recorded[0].RecordedAt)
}

func TestHandleMessageClampsBadConfidence(t *testing.T) {
	recorder := &fakeRecorder{}
	ingestor := &Ingestor{recorder: recorder, log: zap.NewNop()}

	err := ingestor.HandleMessage(context.Background(), "groundcrew/headcounts/West", []byte(`{"count":100,"confidence":7.5}`))
	require.NoError(t, err)
	require.InDelta(t, 1.0, recorder.recorded[0].Confidence, 0.001)
}

func TestHandleMessageRejectsBadInput(t *testing.T) {
	recorder := &fakeRecorder{}
	ingestor := &Ingestor{recorder: recorder, log: zap.NewNop()}

	require.Error(t, ingestor.HandleMessage(context.Background(), "groundcrew/headcounts/North", []byte(`not json`)))
	require.Error(t, ingestor.HandleMessage(context.Background(), "groundcrew/headcounts/North", []byte(`{"count":-5}`)))
	require.Error(t, ingestor.HandleMessage(context.Background(), "", []byte(`{"count":5}`)))
	require.Empty(t, recorder.recorded)
}
