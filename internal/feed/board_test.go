package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvolkov/spreadbot/internal/domain"
)

func boardSample(symbol, exchange string, price float64, observedAt time.Time) domain.PriceSample {
	return domain.PriceSample{
		Symbol:     symbol,
		Exchange:   exchange,
		Price:      price,
		MarketType: domain.MarketSpot,
		ObservedAt: observedAt,
	}
}

func TestBoard(t *testing.T) {
	now := time.Now()

	t.Run("latest price wins", func(t *testing.T) {
		b := NewBoard(30 * time.Second)
		b.Apply(boardSample("BTC/USDT", "Binance", 100, now))
		b.Apply(boardSample("BTC/USDT", "Binance", 101, now))

		price, ok := b.Price("BTC/USDT", "Binance", domain.MarketSpot)
		require.True(t, ok)
		assert.Equal(t, 101.0, price)
	})

	t.Run("stale prices are absent", func(t *testing.T) {
		b := NewBoard(30 * time.Second)
		b.Apply(boardSample("BTC/USDT", "Binance", 100, now.Add(-time.Minute)))

		_, ok := b.Price("BTC/USDT", "Binance", domain.MarketSpot)
		assert.False(t, ok)
	})

	t.Run("non-positive prices dropped", func(t *testing.T) {
		b := NewBoard(30 * time.Second)
		b.Apply(boardSample("BTC/USDT", "Binance", 0, now))
		b.Apply(boardSample("BTC/USDT", "Binance", -5, now))

		_, ok := b.Price("BTC/USDT", "Binance", domain.MarketSpot)
		assert.False(t, ok)
	})

	t.Run("markets are keyed separately", func(t *testing.T) {
		b := NewBoard(30 * time.Second)
		spot := boardSample("BTC/USDT", "Binance", 100, now)
		futures := spot
		futures.MarketType = domain.MarketFutures
		futures.Price = 103
		b.Apply(spot)
		b.Apply(futures)

		p1, _ := b.Price("BTC/USDT", "Binance", domain.MarketSpot)
		p2, _ := b.Price("BTC/USDT", "Binance", domain.MarketFutures)
		assert.Equal(t, 100.0, p1)
		assert.Equal(t, 103.0, p2)
	})

	t.Run("snapshot filters market and staleness", func(t *testing.T) {
		b := NewBoard(30 * time.Second)
		b.Apply(boardSample("BTC/USDT", "Binance", 100, now))
		b.Apply(boardSample("ETH/USDT", "Binance", 2000, now.Add(-time.Minute)))
		futures := boardSample("BTC/USDT", "Bybit", 101, now)
		futures.MarketType = domain.MarketFutures
		b.Apply(futures)

		snap := b.Snapshot(domain.MarketSpot, now)
		require.Len(t, snap, 1)
		assert.Equal(t, "BTC/USDT", snap[0].Symbol)
		assert.Equal(t, "Binance", snap[0].Exchange)
	})
}
