package domain

import "time"

// Strategy is a user-defined automated-trading rule set. It is owned by a
// user and mutated only through explicit store updates; the matching and
// execution path treats it as read-only.
type Strategy struct {
	ID                  int64
	UserID              int64
	Name                string
	Exchanges           []string
	MinProfitPercentage float64
	MaxTradeAmount      float64
	TradingPairs        []string // empty means all pairs
	AutoTradeEnabled    bool
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// AllowsExchange reports whether the strategy's exchange set contains name.
func (s Strategy) AllowsExchange(name string) bool {
	for _, e := range s.Exchanges {
		if e == name {
			return true
		}
	}
	return false
}

// AllowsPair reports whether the strategy trades the given symbol. An empty
// trading-pairs list means every symbol is allowed.
func (s Strategy) AllowsPair(symbol string) bool {
	if len(s.TradingPairs) == 0 {
		return true
	}
	for _, p := range s.TradingPairs {
		if p == symbol {
			return true
		}
	}
	return false
}
