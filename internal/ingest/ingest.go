// Package ingest feeds zone headcounts published by counting sensors into
// the store. Counts arrive over MQTT on groundcrew/headcounts/<zone>.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/groundcrewhq/groundcrew/internal/config"
	"github.com/groundcrewhq/groundcrew/internal/models"
	"github.com/groundcrewhq/groundcrew/internal/store"
	"github.com/groundcrewhq/groundcrew/internal/ws"
)

// Recorder is the slice of the headcount store the ingestor needs.
type Recorder interface {
	Record(ctx context.Context, params store.HeadcountParams) (*store.Headcount, error)
}

// Ingestor subscribes to the sensor topic and records each measurement.
type Ingestor struct {
	recorder  Recorder
	publisher ws.Publisher
	log       *zap.Logger
	client    mqtt.Client
	topic     string
}

// sensorReading is the payload sensors publish. RecordedAt defaults to
// arrival time when the sensor omits it.
type sensorReading struct {
	Count      int        `json:"count"`
	Confidence float64    `json:"confidence"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

// New connects to the broker and returns an ingestor ready to Start.
func New(cfg config.MQTTConfig, recorder Recorder, publisher ws.Publisher, log *zap.Logger) (*Ingestor, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	// Brokers disconnect duplicate client IDs, so each instance gets a suffix.
	opts.SetClientID(cfg.ClientID + "-" + uuid.NewString()[:8])
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Ingestor{
		recorder:  recorder,
		publisher: publisher,
		log:       log,
		client:    client,
		topic:     cfg.Topic,
	}, nil
}

// Start subscribes to the headcount topic.
func (i *Ingestor) Start(ctx context.Context) error {
	token := i.client.Subscribe(i.topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		if err := i.HandleMessage(ctx, msg.Topic(), msg.Payload()); err != nil {
			i.log.Warn("dropping sensor message",
				zap.String("topic", msg.Topic()),
				zap.Error(err),
			)
		}
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", i.topic, token.Error())
	}
	i.log.Info("listening for sensor headcounts", zap.String("topic", i.topic))
	return nil
}

// Stop disconnects from the broker.
func (i *Ingestor) Stop() {
	i.client.Disconnect(250)
}

// HandleMessage parses one sensor payload and records it. The zone comes
// from the last topic segment.
func (i *Ingestor) HandleMessage(ctx context.Context, topic string, payload []byte) error {
	zone := zoneFromTopic(topic)
	if zone == "" {
		return fmt.Errorf("no zone in topic %q", topic)
	}

	var reading sensorReading
	if err := json.Unmarshal(payload, &reading); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	if reading.Count < 0 {
		return fmt.Errorf("negative count %d for zone %s", reading.Count, zone)
	}

	confidence := reading.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = 1
	}
	recordedAt := time.Now().UTC()
	if reading.RecordedAt != nil {
		recordedAt = reading.RecordedAt.UTC()
	}

	headcount, err := i.recorder.Record(ctx, store.HeadcountParams{
		Zone:       zone,
		Count:      reading.Count,
		Source:     models.SourceAPI,
		Confidence: confidence,
		RecordedAt: recordedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to record headcount: %w", err)
	}

	if i.publisher != nil {
		eventPayload, _ := json.Marshal(headcount)
		if err := i.publisher.Publish(ctx, ws.Event{
			Type:    ws.EventHeadcountRecorded,
			Zone:    zone,
			Payload: eventPayload,
		}); err != nil {
			i.log.Warn("failed to publish headcount event", zap.String("zone", zone), zap.Error(err))
		}
	}

	i.log.Debug("recorded sensor headcount",
		zap.String("zone", zone),
		zap.Int("count", reading.Count),
		zap.Float64("confidence", confidence),
	)
	return nil
}

func zoneFromTopic(topic string) string {
	parts := strings.Split(strings.TrimSpace(topic), "/")
	if len(parts) == 0 {
		return ""
	}
	zone := strings.TrimSpace(parts[len(parts)-1])
	if zone == "#" || zone == "+" {
		return ""
	}
	return zone
}
