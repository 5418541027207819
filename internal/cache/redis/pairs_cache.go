package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mvolkov/spreadbot/internal/domain"
)

// PairsCache caches per-exchange trading pair lists so restarts do not
// hammer exchange REST endpoints with instrument discovery calls.
type PairsCache struct {
	client *Client
	ttl    time.Duration
}

// NewPairsCache creates a PairsCache with the given entry TTL.
func NewPairsCache(client *Client, ttl time.Duration) *PairsCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &PairsCache{client: client, ttl: ttl}
}

func pairsKey(exchange string, market domain.MarketType) string {
	return fmt.Sprintf("pairs:%s:%s", exchange, market)
}

// Get returns the cached pair list for an exchange and market, or
// domain.ErrNotFound when no entry exists.
func (c *PairsCache) Get(ctx context.Context, exchange string, market domain.MarketType) ([]string, error) {
	key := pairsKey(exchange, market)

	raw, err := c.client.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get %s: %w", key, err)
	}

	var pairs []string
	if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
		return nil, fmt.Errorf("redis: decode %s: %w", key, err)
	}
	return pairs, nil
}

// Set stores the pair list for an exchange and market.
func (c *PairsCache) Set(ctx context.Context, exchange string, market domain.MarketType, pairs []string) error {
	key := pairsKey(exchange, market)

	raw, err := json.Marshal(pairs)
	if err != nil {
		return fmt.Errorf("redis: encode %s: %w", key, err)
	}
	if err := c.client.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}
