package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Broadcaster delivers live notifications over Redis pub/sub. Each user has
// a dedicated channel so any API instance can serve that user's stream.
type Broadcaster struct {
	rdb redis.UniversalClient
}

func NewBroadcaster(rdb redis.UniversalClient) *Broadcaster {
	return &Broadcaster{rdb: rdb}
}

func NotificationChannel(userID uuid.UUID) string {
	return "notifications:" + userID.String()
}

func (b *Broadcaster) Publish(ctx context.Context, userID uuid.UUID, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("Publish: encode: %w", err)
	}
	if err := b.rdb.Publish(ctx, NotificationChannel(userID), string(raw)).Err(); err != nil {
		return fmt.Errorf("Publish: %w", err)
	}
	return nil
}

// Subscribe returns a stream of raw JSON messages for userID. The channel is
// closed when ctx is cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan string, error) {
	sub := b.rdb.Subscribe(ctx, NotificationChannel(userID))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("Subscribe: %w", err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
