// Package redisstore holds the Redis-backed pieces of the service: the
// live notification broadcaster, the TTL cache and the idempotency store.
package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("NewClient: parse url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("NewClient: ping: %w", err)
	}
	return client, nil
}
