// Package feed maintains the live price view: a staleness-aware price board
// fed by supervised per-exchange websocket streams.
package feed

import (
	"sync"
	"time"

	"github.com/mvolkov/spreadbot/internal/domain"
)

type boardKey struct {
	symbol   string
	exchange string
	market   domain.MarketType
}

type boardEntry struct {
	price      float64
	observedAt time.Time
}

// Board is the in-memory latest-price table. Writes come from a single
// consumer goroutine draining the feed channel; reads take a snapshot under a
// short critical section so the analysis loop never blocks on a slow feed.
// A price with no update inside the staleness window is treated as absent.
type Board struct {
	staleness time.Duration

	mu      sync.RWMutex
	entries map[boardKey]boardEntry
}

// NewBoard creates a Board with the given staleness cutoff.
func NewBoard(staleness time.Duration) *Board {
	return &Board{
		staleness: staleness,
		entries:   make(map[boardKey]boardEntry),
	}
}

// Apply records one price sample. Non-positive prices are dropped here so the
// analyzer can assume positive input.
func (b *Board) Apply(s domain.PriceSample) {
	if s.Price <= 0 || s.Symbol == "" {
		return
	}
	b.mu.Lock()
	b.entries[boardKey{s.Symbol, s.Exchange, s.MarketType}] = boardEntry{
		price:      s.Price,
		observedAt: s.ObservedAt,
	}
	b.mu.Unlock()
}

// Price returns the freshest non-stale price of symbol on exchange.
func (b *Board) Price(symbol, exchange string, market domain.MarketType) (float64, bool) {
	b.mu.RLock()
	entry, ok := b.entries[boardKey{symbol, exchange, market}]
	b.mu.RUnlock()
	if !ok || time.Since(entry.observedAt) > b.staleness {
		return 0, false
	}
	return entry.price, true
}

// Snapshot returns every non-stale sample for one market type as of now.
func (b *Board) Snapshot(market domain.MarketType, now time.Time) []domain.PriceSample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	samples := make([]domain.PriceSample, 0, len(b.entries))
	for key, entry := range b.entries {
		if key.market != market {
			continue
		}
		if now.Sub(entry.observedAt) > b.staleness {
			continue
		}
		samples = append(samples, domain.PriceSample{
			Symbol:     key.symbol,
			Exchange:   key.exchange,
			Price:      entry.price,
			MarketType: key.market,
			ObservedAt: entry.observedAt,
		})
	}
	return samples
}

// Compile-time interface check.
var _ domain.PriceSource = (*Board)(nil)
