package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "comments:events"

// RedisNotifier publishes events to a Redis channel so that every API
// instance can relay them to its own websocket clients.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	log     *slog.Logger
}

func NewRedisNotifier(client *redis.Client, channel string, lg *slog.Logger) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{client: client, channel: channel, log: lg}
}

func (n *RedisNotifier) Broadcast(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Name, err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Name, err)
	}
	return nil
}

// Relay forwards every message on the channel to local until ctx is done.
func (n *RedisNotifier) Relay(ctx context.Context, local Notifier) error {
	sub := n.client.Subscribe(ctx, n.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed before reading.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", n.channel, err)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var frame struct {
				Name string          `json:"event"`
				Data json.RawMessage `json:"data"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
				n.log.Warn("skipping malformed event", "channel", n.channel, "error", err)
				continue
			}
			if err := local.Broadcast(ctx, Event{Name: frame.Name, Data: frame.Data}); err != nil {
				n.log.Warn("relay broadcast failed", "event", frame.Name, "error", err)
			}
		}
	}
}
