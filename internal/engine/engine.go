// Package engine drives the analysis loop: on every tick it snapshots the
// price board, detects opportunities, folds them into the store, and routes
// fresh ones to notifications and auto-trading.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/mvolkov/spreadbot/internal/arbitrage"
	"github.com/mvolkov/spreadbot/internal/domain"
)

// Dispatcher receives freshly detected opportunities for auto-trading. It is
// nil in monitor mode.
type Dispatcher interface {
	ProcessOpportunity(ctx context.Context, opp domain.Opportunity)
}

// Engine owns the fixed-interval analysis tick. It never blocks on feed
// tasks: each tick operates on a snapshot of current prices and applies the
// resulting batch atomically.
type Engine struct {
	source   domain.PriceSource
	analyzer *arbitrage.Analyzer
	store    *arbitrage.Store
	gate     *CooldownGate
	notifier domain.Notifier
	trader   Dispatcher
	logger   *slog.Logger

	tick            time.Duration
	notifyThreshold float64
}

// New creates an Engine. notifier may be nil when no channels are
// configured; trader may be nil in monitor mode.
func New(
	source domain.PriceSource,
	analyzer *arbitrage.Analyzer,
	store *arbitrage.Store,
	gate *CooldownGate,
	notifier domain.Notifier,
	trader Dispatcher,
	tick time.Duration,
	notifyThreshold float64,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		source:          source,
		analyzer:        analyzer,
		store:           store,
		gate:            gate,
		notifier:        notifier,
		trader:          trader,
		tick:            tick,
		notifyThreshold: notifyThreshold,
		logger:          logger.With(slog.String("component", "engine")),
	}
}

// Run executes analysis ticks until the context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("analysis engine started", slog.Duration("tick", e.tick))
	defer e.logger.Info("analysis engine stopped")

	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, market := range domain.MarketTypes {
				e.runTick(ctx, market)
			}
		}
	}
}

// runTick analyzes one market type from a single logical snapshot.
func (e *Engine) runTick(ctx context.Context, market domain.MarketType) {
	now := time.Now()
	samples := e.source.Snapshot(market, now)

	// The batch is merged even when the snapshot is empty: Merge drives
	// eviction, and stale opportunities must keep expiring during a total
	// feed outage.
	detected := e.analyzer.Find(samples, market)
	fresh := e.store.Merge(detected, now)

	if len(fresh) > 0 {
		e.logger.Debug("opportunities detected",
			slog.String("market", string(market)),
			slog.Int("detected", len(detected)),
			slog.Int("fresh", len(fresh)),
		)
	}

	// Notifications consider every detection of the tick; the cooldown gate
	// keeps oscillating spreads from storming the channels.
	if e.notifier != nil {
		for _, opp := range detected {
			if opp.ProfitPercentage < e.notifyThreshold {
				continue
			}
			if !e.gate.Allow(ctx, opp.Symbol, market) {
				continue
			}
			e.notifier.NotifyOpportunity(ctx, opp)
			e.gate.MarkTriggered(ctx, opp.Symbol, market)
		}
	}

	// Trading triggers only on fresh opportunities; refreshes of a live
	// spread must not re-fire a trade every tick.
	if e.trader != nil {
		for _, opp := range fresh {
			e.trader.ProcessOpportunity(ctx, opp)
		}
	}
}
