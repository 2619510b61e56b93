// Package prices serves coin quotes from an upstream provider, cached for a
// short TTL behind a pluggable Cache.
package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
	"github.com/josh-kwaku/digital-bank-backend/internal/logging"
)

const cacheKey = "prices:usd"

// Cache stores opaque values with an expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type provider interface {
	FetchPrices(ctx context.Context, coinIDs []string) (domain.Prices, error)
}

type Service struct {
	provider provider
	cache    Cache
	coinIDs  []string
	ttl      time.Duration
}

func NewService(p provider, cache Cache, coinIDs []string, ttl time.Duration) *Service {
	return &Service{provider: p, cache: cache, coinIDs: coinIDs, ttl: ttl}
}

// Prices returns the cached quotes when fresh, otherwise fetches and caches
// them. Cache failures degrade to an upstream fetch.
func (s *Service) Prices(ctx context.Context) (domain.Prices, error) {
	log := logging.FromContext(ctx)

	raw, ok, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		log.Warn("price cache read failed", "error", err)
	}
	if ok {
		var cached domain.Prices
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		log.Warn("discarding malformed cached prices")
	}

	prices, err := s.provider.FetchPrices(ctx, s.coinIDs)
	if err != nil {
		return nil, fmt.Errorf("Prices: %v: %w", err, domain.ErrPriceUnavailable)
	}

	encoded, err := json.Marshal(prices)
	if err != nil {
		return nil, fmt.Errorf("Prices: encode: %w", err)
	}
	if err := s.cache.Set(ctx, cacheKey, encoded, s.ttl); err != nil {
		log.Warn("price cache write failed", "error", err)
	}
	return prices, nil
}
