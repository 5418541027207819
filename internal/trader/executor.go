package trader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mvolkov/spreadbot/internal/domain"
)

// Adapters maps exchange names to their order adapters.
type Adapters map[string]domain.OrderAdapter

// NewAdapters builds the lookup from a list of adapters.
func NewAdapters(list ...domain.OrderAdapter) Adapters {
	m := make(Adapters, len(list))
	for _, a := range list {
		m[a.Exchange()] = a
	}
	return m
}

// Executor turns a matched (strategy, opportunity) pair into two real orders
// and a recorded outcome. The execution lock set guarantees at most one
// in-flight execution per idempotency key; the lock is released on every
// terminal path. Failed legs are never retried automatically: a partially
// filled arbitrage requires human intervention.
type Executor struct {
	locks    *ExecLocks
	creds    domain.CredentialStore
	adapters Adapters
	trades   domain.TradeStore
	notifier domain.Notifier
	logger   *slog.Logger

	// riskFraction and hardCapUSD bound exposure per automated trade
	// regardless of strategy configuration.
	riskFraction float64
	hardCapUSD   float64
}

// NewExecutor creates an Executor. trades and notifier may not be nil; the
// executor records and reports every terminal state.
func NewExecutor(
	locks *ExecLocks,
	creds domain.CredentialStore,
	adapters Adapters,
	trades domain.TradeStore,
	notifier domain.Notifier,
	riskFraction, hardCapUSD float64,
	logger *slog.Logger,
) *Executor {
	return &Executor{
		locks:        locks,
		creds:        creds,
		adapters:     adapters,
		trades:       trades,
		notifier:     notifier,
		riskFraction: riskFraction,
		hardCapUSD:   hardCapUSD,
		logger:       logger.With(slog.String("component", "executor")),
	}
}

// Execute runs the full execution protocol for one matched pair. It returns
// domain.ErrLockHeld without side effects when an execution for the same key
// is already in flight. Leg failures and missing credentials are terminal,
// recorded, and reported to the strategy owner; they do not surface as an
// error to the caller.
func (e *Executor) Execute(ctx context.Context, strategy domain.Strategy, opp domain.Opportunity) error {
	key := ExecKey(strategy.ID, opp)
	if !e.locks.TryAcquire(key) {
		return domain.ErrLockHeld
	}
	defer e.locks.Release(key)

	log := e.logger.With(
		slog.Int64("strategy_id", strategy.ID),
		slog.String("symbol", opp.Symbol),
		slog.String("buy_exchange", opp.BuyExchange),
		slog.String("sell_exchange", opp.SellExchange),
	)
	log.Info("executing arbitrage", slog.Float64("profit_pct", opp.ProfitPercentage))

	exec := domain.TradeExecution{
		ID:               uuid.New().String(),
		UserID:           strategy.UserID,
		StrategyID:       strategy.ID,
		Symbol:           opp.Symbol,
		BuyExchange:      opp.BuyExchange,
		SellExchange:     opp.SellExchange,
		BuyPrice:         opp.BuyPrice,
		SellPrice:        opp.SellPrice,
		ProfitPercentage: opp.ProfitPercentage,
		Status:           domain.TradePending,
		ExecutedAt:       time.Now().UTC(),
	}

	buyCreds, err := e.creds.Credentials(ctx, strategy.UserID, opp.BuyExchange)
	var sellCreds domain.Credentials
	if err == nil {
		sellCreds, err = e.creds.Credentials(ctx, strategy.UserID, opp.SellExchange)
	}
	if err != nil {
		// Absent credentials and an unreachable credential store are
		// different operator problems; the recorded reason keeps them apart.
		reason := domain.FailReasonMissingCredentials
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error("credential lookup failed", slog.String("error", err.Error()))
			reason = fmt.Sprintf("%s: %v", domain.FailReasonCredentialLookup, err)
		}
		e.finalize(ctx, exec, domain.TradeFailed, reason, log)
		return nil
	}

	// Trade size is capped independently of strategy configuration: a small
	// fraction of the strategy's maximum, never more than the hard notional
	// cap.
	notional := strategy.MaxTradeAmount * e.riskFraction
	if notional > e.hardCapUSD {
		notional = e.hardCapUSD
	}
	exec.Quantity = notional / opp.BuyPrice

	// Buy leg. Nothing was bought on failure, so no compensation is needed.
	buyRes, err := e.placeOrder(ctx, opp.BuyExchange, buyCreds, domain.OrderRequest{
		Symbol:   opp.Symbol,
		Side:     domain.OrderBuy,
		Quantity: exec.Quantity,
		Price:    opp.BuyPrice,
	})
	if err != nil {
		log.Error("buy leg failed", slog.String("error", err.Error()))
		exec.FailReason = fmt.Sprintf("%s: %v", domain.FailReasonBuyLeg, err)
		e.finalize(ctx, exec, domain.TradeFailed, exec.FailReason, log)
		return nil
	}
	exec.BuyOrderID = buyRes.OrderID

	// Sell leg. A failure here strands funds on the buy exchange; that risk
	// is reported to the owner, never silently absorbed.
	sellRes, err := e.placeOrder(ctx, opp.SellExchange, sellCreds, domain.OrderRequest{
		Symbol:   opp.Symbol,
		Side:     domain.OrderSell,
		Quantity: exec.Quantity,
		Price:    opp.SellPrice,
	})
	if err != nil {
		log.Error("sell leg failed, buy leg already filled", slog.String("error", err.Error()))
		exec.FailReason = fmt.Sprintf("%s: %v", domain.FailReasonSellLeg, err)
		e.finalize(ctx, exec, domain.TradeFailed, exec.FailReason, log)
		return nil
	}
	exec.SellOrderID = sellRes.OrderID

	exec.Profit = (opp.SellPrice - opp.BuyPrice) * exec.Quantity
	e.finalize(ctx, exec, domain.TradeCompleted, "", log)

	log.Info("arbitrage executed",
		slog.Float64("profit_usd", exec.Profit),
		slog.Float64("quantity", exec.Quantity),
	)
	return nil
}

func (e *Executor) placeOrder(ctx context.Context, exchange string, creds domain.Credentials, req domain.OrderRequest) (domain.OrderResult, error) {
	adapter, ok := e.adapters[exchange]
	if !ok {
		return domain.OrderResult{}, fmt.Errorf("%w: %s", domain.ErrNoAdapter, exchange)
	}
	return adapter.PlaceOrder(ctx, creds, req)
}

// finalize moves the execution to its terminal state exactly once, persists
// it, and notifies the owner.
func (e *Executor) finalize(ctx context.Context, exec domain.TradeExecution, status domain.TradeStatus, reason string, log *slog.Logger) {
	exec.Status = status
	exec.FailReason = reason

	if err := e.trades.Record(ctx, exec); err != nil {
		log.Error("trade record failed", slog.String("error", err.Error()))
	}
	e.notifier.NotifyTradeOutcome(ctx, exec)
}
