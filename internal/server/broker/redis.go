// Package broker bridges hub instances over redis pub/sub so viewers
// connected to different instances still share one document room.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// message wraps a relayed frame with the publishing instance's id so
// an instance can skip frames it published itself: redis delivers
// publishes back to every subscriber, the publisher included.
type message struct {
	Src   string          `json:"src"`
	Frame json.RawMessage `json:"frame"`
}

// Redis is a hub broker backed by redis pub/sub, one redis channel
// per document.
type Redis struct {
	client *redis.Client
	logger *slog.Logger
	id     string
}

// NewRedis connects to redis and verifies the connection.
func NewRedis(ctx context.Context, addr string, logger *slog.Logger) (*Redis, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &Redis{
		client: client,
		logger: logger,
		id:     uuid.New().String(),
	}, nil
}

// Close releases the redis connection.
func (b *Redis) Close() error {
	return b.client.Close()
}

// Publish sends a frame to every instance serving the document.
func (b *Redis) Publish(ctx context.Context, document string, frame []byte) error {
	payload, err := json.Marshal(message{Src: b.id, Frame: frame})
	if err != nil {
		return fmt.Errorf("failed to marshal broker message: %w", err)
	}
	if err := b.client.Publish(ctx, channelKey(document), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

// Subscribe delivers frames published by other instances for the
// document. Frames this instance published are filtered out.
func (b *Redis) Subscribe(ctx context.Context, document string, deliver func(frame []byte)) (func(), error) {
	pubsub := b.client.Subscribe(ctx, channelKey(document))

	// Force the subscription to be established before returning, so
	// no frame published after Subscribe is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to redis: %w", err)
	}

	go func() {
		for m := range pubsub.Channel() {
			var msg message
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				b.logger.Warn("dropping unparseable broker message", "document", document, "error", err)
				continue
			}
			if msg.Src == b.id {
				continue
			}
			deliver(msg.Frame)
		}
	}()

	return func() {
		if err := pubsub.Close(); err != nil {
			b.logger.Warn("failed to close redis subscription", "document", document, "error", err)
		}
	}, nil
}

func channelKey(document string) string {
	return "annosync:" + document
}
