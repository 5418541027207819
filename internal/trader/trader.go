package trader

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mvolkov/spreadbot/internal/domain"
)

// Trader holds a cached view of auto-trading strategies and dispatches
// detected opportunities to the executor for every matching strategy. The
// cache is refreshed on a fixed interval so strategy edits take effect
// without a restart.
type Trader struct {
	executor   *Executor
	strategies domain.StrategyStore
	reload     time.Duration
	logger     *slog.Logger

	mu     sync.RWMutex
	cached []domain.Strategy
}

// New creates a Trader that reloads strategies every reload interval.
func New(executor *Executor, strategies domain.StrategyStore, reload time.Duration, logger *slog.Logger) *Trader {
	if reload <= 0 {
		reload = time.Minute
	}
	return &Trader{
		executor:   executor,
		strategies: strategies,
		reload:     reload,
		logger:     logger.With(slog.String("component", "trader")),
	}
}

// Run loads strategies immediately, then keeps the cache fresh until the
// context is cancelled.
func (t *Trader) Run(ctx context.Context) error {
	t.reloadStrategies(ctx)

	ticker := time.NewTicker(t.reload)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.reloadStrategies(ctx)
		}
	}
}

func (t *Trader) reloadStrategies(ctx context.Context) {
	list, err := t.strategies.ListAutoTrade(ctx)
	if err != nil {
		// Keep trading on the previous snapshot; a transient store error
		// must not stop the pipeline.
		t.logger.Warn("strategy reload failed", slog.String("error", err.Error()))
		return
	}

	t.mu.Lock()
	t.cached = list
	t.mu.Unlock()
	t.logger.Debug("strategies reloaded", slog.Int("count", len(list)))
}

// Strategies returns the current cached strategy snapshot.
func (t *Trader) Strategies() []domain.Strategy {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.Strategy, len(t.cached))
	copy(out, t.cached)
	return out
}

// ProcessOpportunity executes the opportunity for every matching strategy.
// Duplicate triggers for a key already in flight are silently skipped; the
// execution lock inside the executor makes that race harmless.
func (t *Trader) ProcessOpportunity(ctx context.Context, opp domain.Opportunity) {
	for _, strategy := range Match(opp, t.Strategies()) {
		if err := t.executor.Execute(ctx, strategy, opp); err != nil {
			if err == domain.ErrLockHeld {
				continue
			}
			t.logger.Error("execution failed",
				slog.Int64("strategy_id", strategy.ID),
				slog.String("symbol", opp.Symbol),
				slog.String("error", err.Error()),
			)
		}
	}
}
