package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Publisher fans events out to every server instance through a redis
// channel. Single-instance deployments can skip redis and hand events
// straight to the hub instead.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// RedisPublisher publishes events to a redis channel.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

// NewRedisPublisher creates a publisher for the given channel.
func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

// Publish marshals the event and publishes it.
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// HubPublisher delivers events directly to a local hub.
type HubPublisher struct {
	hub *Hub
}

// NewHubPublisher wraps a hub as a Publisher.
func NewHubPublisher(hub *Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

// Publish broadcasts the event on the local hub.
func (p *HubPublisher) Publish(_ context.Context, event Event) error {
	return p.hub.BroadcastEvent(event)
}

// Bridge subscribes to the redis event channel and relays messages to the
// local hub.
type Bridge struct {
	rdb     *redis.Client
	channel string
	hub     *Hub
	log     *zap.Logger
}

// NewBridge creates a redis-to-hub relay.
func NewBridge(rdb *redis.Client, channel string, hub *Hub, log *zap.Logger) *Bridge {
	return &Bridge{rdb: rdb, channel: channel, hub: hub, log: log}
}

// Run relays messages until the context is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.log.Warn("dropping malformed event", zap.Error(err))
				continue
			}
			b.hub.Broadcast(event.Zone, []byte(msg.Payload))
		}
	}
}
