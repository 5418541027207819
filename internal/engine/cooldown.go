package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/mvolkov/spreadbot/internal/domain"
)

// CooldownGate rate-limits notifications per (symbol, marketType) so a
// spread oscillating around the threshold does not storm the channels. The
// backing store is best effort and may be shared across instances; when it
// is unreachable the gate fails open so detection keeps flowing.
type CooldownGate struct {
	store   domain.CooldownStore
	spot    time.Duration
	futures time.Duration
	logger  *slog.Logger
}

// NewCooldownGate creates a gate with per-market windows. Futures spreads
// are more transient, so their window should be the shorter one.
func NewCooldownGate(store domain.CooldownStore, spot, futures time.Duration, logger *slog.Logger) *CooldownGate {
	return &CooldownGate{
		store:   store,
		spot:    spot,
		futures: futures,
		logger:  logger.With(slog.String("component", "cooldown_gate")),
	}
}

func cooldownKey(symbol string, market domain.MarketType) string {
	return "cooldown:" + string(market) + ":" + symbol
}

// Allow reports whether the (symbol, market) pair may trigger right now.
// Store errors mean allow: rate-limit correctness is sacrificed for
// availability of the detection path.
func (g *CooldownGate) Allow(ctx context.Context, symbol string, market domain.MarketType) bool {
	if g.store == nil {
		return true
	}
	onCooldown, err := g.store.OnCooldown(ctx, cooldownKey(symbol, market))
	if err != nil {
		g.logger.Debug("cooldown check failed, allowing",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
		return true
	}
	return !onCooldown
}

// MarkTriggered starts the cooldown window for the pair. Callers invoke it
// after a permitted trigger; errors are logged and otherwise ignored.
func (g *CooldownGate) MarkTriggered(ctx context.Context, symbol string, market domain.MarketType) {
	if g.store == nil {
		return
	}
	ttl := g.spot
	if market == domain.MarketFutures {
		ttl = g.futures
	}
	if err := g.store.SetCooldown(ctx, cooldownKey(symbol, market), ttl); err != nil {
		g.logger.Debug("cooldown set failed",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
	}
}
