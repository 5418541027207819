package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvolkov/spreadbot/internal/domain"
)

type memCooldownStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newMemCooldownStore() *memCooldownStore {
	return &memCooldownStore{entries: make(map[string]time.Time)}
}

func (s *memCooldownStore) SetCooldown(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = time.Now().Add(ttl)
	return nil
}

func (s *memCooldownStore) OnCooldown(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.entries[key]
	return ok && time.Now().Before(until), nil
}

type failingCooldownStore struct{}

func (failingCooldownStore) SetCooldown(context.Context, string, time.Duration) error {
	return errors.New("connection refused")
}

func (failingCooldownStore) OnCooldown(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCooldownGate(t *testing.T) {
	ctx := context.Background()

	t.Run("blocks after trigger within window", func(t *testing.T) {
		store := newMemCooldownStore()
		gate := NewCooldownGate(store, 5*time.Minute, 2*time.Minute, testLogger())

		require.True(t, gate.Allow(ctx, "BTC/USDT", domain.MarketSpot))
		gate.MarkTriggered(ctx, "BTC/USDT", domain.MarketSpot)
		assert.False(t, gate.Allow(ctx, "BTC/USDT", domain.MarketSpot))
	})

	t.Run("markets cool down independently", func(t *testing.T) {
		store := newMemCooldownStore()
		gate := NewCooldownGate(store, 5*time.Minute, 2*time.Minute, testLogger())

		gate.MarkTriggered(ctx, "BTC/USDT", domain.MarketSpot)
		assert.True(t, gate.Allow(ctx, "BTC/USDT", domain.MarketFutures))
	})

	t.Run("symbols cool down independently", func(t *testing.T) {
		store := newMemCooldownStore()
		gate := NewCooldownGate(store, 5*time.Minute, 2*time.Minute, testLogger())

		gate.MarkTriggered(ctx, "BTC/USDT", domain.MarketSpot)
		assert.True(t, gate.Allow(ctx, "ETH/USDT", domain.MarketSpot))
	})

	t.Run("fails open when store errors", func(t *testing.T) {
		gate := NewCooldownGate(failingCooldownStore{}, 5*time.Minute, 2*time.Minute, testLogger())

		assert.True(t, gate.Allow(ctx, "BTC/USDT", domain.MarketSpot))
		gate.MarkTriggered(ctx, "BTC/USDT", domain.MarketSpot)
		assert.True(t, gate.Allow(ctx, "BTC/USDT", domain.MarketSpot))
	})

	t.Run("nil store allows everything", func(t *testing.T) {
		gate := NewCooldownGate(nil, 5*time.Minute, 2*time.Minute, testLogger())
		assert.True(t, gate.Allow(ctx, "BTC/USDT", domain.MarketSpot))
		gate.MarkTriggered(ctx, "BTC/USDT", domain.MarketSpot)
		assert.True(t, gate.Allow(ctx, "BTC/USDT", domain.MarketSpot))
	})
}
