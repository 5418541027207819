package domain

import (
	"context"
	"time"
)

// PriceSource exposes the feed layer's current view of prices. A price with
// no update inside the staleness window is reported as absent.
type PriceSource interface {
	// Price returns the freshest non-stale price of symbol on exchange, or
	// ok=false when no usable price exists.
	Price(symbol, exchange string, market MarketType) (float64, bool)
	// Snapshot returns every non-stale sample for one market type as of now.
	Snapshot(market MarketType, now time.Time) []PriceSample
}

// StrategyStore provides read/write access to persisted trading strategies.
type StrategyStore interface {
	ListAutoTrade(ctx context.Context) ([]Strategy, error)
	ListByUser(ctx context.Context, userID int64) ([]Strategy, error)
	Create(ctx context.Context, s *Strategy) error
	Update(ctx context.Context, s Strategy) error
}

// TradeStore persists finalized trade executions.
type TradeStore interface {
	Record(ctx context.Context, exec TradeExecution) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]TradeExecution, error)
}

// CredentialStore resolves per-user exchange API credentials.
// It returns ErrNotFound when the user has no key for the exchange.
type CredentialStore interface {
	Credentials(ctx context.Context, userID int64, exchange string) (Credentials, error)
}

// CooldownStore is the expiring key store backing the cooldown gate. It is
// best effort: callers must treat errors as "no cooldown" (fail open).
type CooldownStore interface {
	// SetCooldown marks key as cooling down for ttl.
	SetCooldown(ctx context.Context, key string, ttl time.Duration) error
	// OnCooldown reports whether key is currently cooling down.
	OnCooldown(ctx context.Context, key string) (bool, error)
}

// Notifier delivers human-readable alerts for detection and trade outcomes.
type Notifier interface {
	NotifyOpportunity(ctx context.Context, opp Opportunity)
	NotifyTradeOutcome(ctx context.Context, exec TradeExecution)
}
