package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type IdempotencyEntry struct {
	RequestHash  string    `json:"request_hash"`
	StatusCode   int       `json:"status_code"`
	ResponseBody []byte    `json:"response_body"`
	CreatedAt    time.Time `json:"created_at"`
}

// IdempotencyStore keeps the first response produced for an
// (Idempotency-Key, user) pair until the entry expires.
type IdempotencyStore struct {
	rdb redis.UniversalClient
}

func NewIdempotencyStore(rdb redis.UniversalClient) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb}
}

func idempotencyKey(key string, userID uuid.UUID) string {
	return "idempotency:" + userID.String() + ":" + key
}

func (s *IdempotencyStore) Get(ctx context.Context, key string, userID uuid.UUID) (*IdempotencyEntry, error) {
	raw, err := s.rdb.Get(ctx, idempotencyKey(key, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}

	var e IdempotencyEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("Get: decode: %w", err)
	}
	return &e, nil
}

// Set stores the entry unless one already exists; the first writer wins.
func (s *IdempotencyStore) Set(ctx context.Context, key string, userID uuid.UUID, entry *IdempotencyEntry, ttl time.Duration) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("Set: encode: %w", err)
	}
	if err := s.rdb.SetNX(ctx, idempotencyKey(key, userID), string(raw), ttl).Err(); err != nil {
		return fmt.Errorf("Set: %w", err)
	}
	return nil
}
