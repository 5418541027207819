package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/mvolkov/spreadbot/internal/domain"
)

// CooldownStore tracks per-key trade cooldowns as expiring Redis keys.
type CooldownStore struct {
	client *Client
}

var _ domain.CooldownStore = (*CooldownStore)(nil)

// NewCooldownStore creates a CooldownStore backed by the given client.
func NewCooldownStore(client *Client) *CooldownStore {
	return &CooldownStore{client: client}
}

// SetCooldown marks the key as on cooldown for the given duration.
func (s *CooldownStore) SetCooldown(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.rdb.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis: set cooldown %s: %w", key, err)
	}
	return nil
}

// OnCooldown reports whether the key is currently on cooldown.
func (s *CooldownStore) OnCooldown(ctx context.Context, key string) (bool, error) {
	n, err := s.client.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis: check cooldown %s: %w", key, err)
	}
	return n > 0, nil
}
