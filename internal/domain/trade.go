package domain

import "time"

// TradeStatus is the terminal-state machine for one automated arbitrage
// trade: pending -> {completed, failed}. Terminal states are final; failed
// legs are never retried automatically.
type TradeStatus string

const (
	TradePending   TradeStatus = "pending"
	TradeCompleted TradeStatus = "completed"
	TradeFailed    TradeStatus = "failed"
)

// Failure reasons recorded on failed executions.
const (
	FailReasonMissingCredentials = "missing_credentials"
	FailReasonCredentialLookup   = "credential_lookup_failed"
	FailReasonBuyLeg             = "buy_leg_failed"
	FailReasonSellLeg            = "sell_leg_failed"
)

// TradeExecution records one automated buy+sell arbitrage attempt. It is
// created when an execution begins and finalized exactly once.
type TradeExecution struct {
	ID               string
	UserID           int64
	StrategyID       int64
	Symbol           string
	BuyExchange      string
	SellExchange     string
	Quantity         float64
	BuyPrice         float64
	SellPrice        float64
	Profit           float64
	ProfitPercentage float64
	Status           TradeStatus
	FailReason       string
	BuyOrderID       string
	SellOrderID      string
	ExecutedAt       time.Time
}
