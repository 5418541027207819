package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvolkov/spreadbot/internal/arbitrage"
	"github.com/mvolkov/spreadbot/internal/domain"
)

type staticSource struct {
	samples []domain.PriceSample
}

func (s *staticSource) Price(symbol, exchange string, market domain.MarketType) (float64, bool) {
	for _, p := range s.samples {
		if p.Symbol == symbol && p.Exchange == exchange && p.MarketType == market {
			return p.Price, true
		}
	}
	return 0, false
}

func (s *staticSource) Snapshot(market domain.MarketType, _ time.Time) []domain.PriceSample {
	var out []domain.PriceSample
	for _, p := range s.samples {
		if p.MarketType == market {
			out = append(out, p)
		}
	}
	return out
}

type capturingNotifier struct {
	mu   sync.Mutex
	opps []domain.Opportunity
}

func (n *capturingNotifier) NotifyOpportunity(_ context.Context, opp domain.Opportunity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.opps = append(n.opps, opp)
}

func (n *capturingNotifier) NotifyTradeOutcome(context.Context, domain.TradeExecution) {}

func (n *capturingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.opps)
}

type capturingDispatcher struct {
	mu   sync.Mutex
	opps []domain.Opportunity
}

func (d *capturingDispatcher) ProcessOpportunity(_ context.Context, opp domain.Opportunity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opps = append(d.opps, opp)
}

func (d *capturingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.opps)
}

func spotSample(symbol, exchange string, price float64) domain.PriceSample {
	return domain.PriceSample{
		Symbol:     symbol,
		Exchange:   exchange,
		Price:      price,
		MarketType: domain.MarketSpot,
		ObservedAt: time.Now(),
	}
}

func TestEngineTick(t *testing.T) {
	ctx := context.Background()

	newEngine := func(source domain.PriceSource, notifier domain.Notifier, dispatcher Dispatcher) (*Engine, *arbitrage.Store) {
		store := arbitrage.NewStore(2 * time.Minute)
		gate := NewCooldownGate(newMemCooldownStore(), 5*time.Minute, 2*time.Minute, testLogger())
		e := New(
			source,
			arbitrage.NewAnalyzer(0.05),
			store,
			gate,
			notifier,
			dispatcher,
			time.Second,
			0.5,
			testLogger(),
		)
		return e, store
	}

	t.Run("detection flows into the store", func(t *testing.T) {
		source := &staticSource{samples: []domain.PriceSample{
			spotSample("BTC/USDT", "Binance", 100),
			spotSample("BTC/USDT", "Bybit", 102),
		}}
		e, store := newEngine(source, nil, nil)

		e.runTick(ctx, domain.MarketSpot)

		active := store.ListActive(domain.MarketSpot, 0)
		require.Len(t, active, 1)
		assert.Equal(t, "BTC/USDT", active[0].Symbol)
	})

	t.Run("trade triggers only on fresh opportunities", func(t *testing.T) {
		source := &staticSource{samples: []domain.PriceSample{
			spotSample("BTC/USDT", "Binance", 100),
			spotSample("BTC/USDT", "Bybit", 102),
		}}
		dispatcher := &capturingDispatcher{}
		e, _ := newEngine(source, nil, dispatcher)

		e.runTick(ctx, domain.MarketSpot)
		e.runTick(ctx, domain.MarketSpot)
		e.runTick(ctx, domain.MarketSpot)

		assert.Equal(t, 1, dispatcher.count(), "refreshes must not re-trigger trades")
	})

	t.Run("notification threshold filters small spreads", func(t *testing.T) {
		source := &staticSource{samples: []domain.PriceSample{
			spotSample("BTC/USDT", "Binance", 100),
			spotSample("BTC/USDT", "Bybit", 100.2), // 0.2%, detected but below 0.5% notify bar
		}}
		notifier := &capturingNotifier{}
		e, store := newEngine(source, notifier, nil)

		e.runTick(ctx, domain.MarketSpot)

		assert.Len(t, store.ListActive(domain.MarketSpot, 0), 1)
		assert.Equal(t, 0, notifier.count())
	})

	t.Run("cooldown suppresses repeat notifications", func(t *testing.T) {
		source := &staticSource{samples: []domain.PriceSample{
			spotSample("BTC/USDT", "Binance", 100),
			spotSample("BTC/USDT", "Bybit", 102),
		}}
		notifier := &capturingNotifier{}
		e, _ := newEngine(source, notifier, nil)

		e.runTick(ctx, domain.MarketSpot)
		e.runTick(ctx, domain.MarketSpot)

		assert.Equal(t, 1, notifier.count())
	})

	t.Run("feed outage still evicts expired opportunities", func(t *testing.T) {
		source := &staticSource{samples: []domain.PriceSample{
			spotSample("BTC/USDT", "Binance", 100),
			spotSample("BTC/USDT", "Bybit", 102),
		}}
		store := arbitrage.NewStore(10 * time.Millisecond)
		gate := NewCooldownGate(newMemCooldownStore(), 5*time.Minute, 2*time.Minute, testLogger())
		e := New(source, arbitrage.NewAnalyzer(0.05), store, gate, nil, nil, time.Second, 0.5, testLogger())

		e.runTick(ctx, domain.MarketSpot)
		require.Len(t, store.ListActive(domain.MarketSpot, 0), 1)

		// All feeds go dark: ticks see empty snapshots, yet the stale
		// opportunity must still expire.
		source.samples = nil
		time.Sleep(50 * time.Millisecond)
		e.runTick(ctx, domain.MarketSpot)

		assert.Empty(t, store.ListActive(domain.MarketSpot, 0))
	})

	t.Run("empty snapshot is a no-op", func(t *testing.T) {
		notifier := &capturingNotifier{}
		dispatcher := &capturingDispatcher{}
		e, store := newEngine(&staticSource{}, notifier, dispatcher)

		e.runTick(ctx, domain.MarketSpot)

		assert.Empty(t, store.ListActive(domain.MarketSpot, 0))
		assert.Equal(t, 0, notifier.count())
		assert.Equal(t, 0, dispatcher.count())
	})
}
