package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mvolkov/spreadbot/internal/domain"
)

// Event types emitted by the alerting layer.
const (
	EventOpportunity    = "opportunity"
	EventTradeCompleted = "trade_completed"
	EventTradeFailed    = "trade_failed"
)

// Alerter formats domain events into human-readable notifications and hands
// them to a Dispatcher. It implements domain.Notifier.
type Alerter struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
}

var _ domain.Notifier = (*Alerter)(nil)

// NewAlerter creates an Alerter delivering through the given dispatcher.
func NewAlerter(dispatcher *Dispatcher, logger *slog.Logger) *Alerter {
	return &Alerter{
		dispatcher: dispatcher,
		logger:     logger.With(slog.String("component", "alerter")),
	}
}

// NotifyOpportunity announces a detected arbitrage opportunity. Delivery
// failures are logged, not propagated; alerting never blocks the scan loop.
func (a *Alerter) NotifyOpportunity(ctx context.Context, opp domain.Opportunity) {
	title := fmt.Sprintf("Arbitrage: %s (%s)", opp.Symbol, opp.MarketType)

	var b strings.Builder
	fmt.Fprintf(&b, "Buy on %s at %.6f\n", opp.BuyExchange, opp.BuyPrice)
	fmt.Fprintf(&b, "Sell on %s at %.6f\n", opp.SellExchange, opp.SellPrice)
	fmt.Fprintf(&b, "Spread: %.3f%%", opp.ProfitPercentage)

	if err := a.dispatcher.Notify(ctx, EventOpportunity, title, b.String()); err != nil {
		a.logger.WarnContext(ctx, "opportunity alert failed",
			slog.String("symbol", opp.Symbol),
			slog.String("error", err.Error()),
		)
	}
}

// NotifyTradeOutcome announces the result of an auto-trade attempt.
func (a *Alerter) NotifyTradeOutcome(ctx context.Context, exec domain.TradeExecution) {
	event := EventTradeCompleted
	title := fmt.Sprintf("Trade completed: %s", exec.Symbol)
	if exec.Status == domain.TradeFailed {
		event = EventTradeFailed
		title = fmt.Sprintf("Trade failed: %s", exec.Symbol)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Buy %s / Sell %s\n", exec.BuyExchange, exec.SellExchange)
	fmt.Fprintf(&b, "Quantity: %.8f at %.6f\n", exec.Quantity, exec.BuyPrice)
	if exec.Status == domain.TradeCompleted {
		fmt.Fprintf(&b, "Profit: %.4f USD (%.3f%%)", exec.Profit, exec.ProfitPercentage)
	} else {
		fmt.Fprintf(&b, "Reason: %s", exec.FailReason)
	}

	if err := a.dispatcher.Notify(ctx, event, title, b.String()); err != nil {
		a.logger.WarnContext(ctx, "trade alert failed",
			slog.String("trade_id", exec.ID),
			slog.String("error", err.Error()),
		)
	}
}
