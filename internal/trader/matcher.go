// Package trader turns detected opportunities into real orders: it matches
// them against registered auto-trading strategies and executes the matched
// pairs with per-key concurrency control.
package trader

import "github.com/mvolkov/spreadbot/internal/domain"

// Match filters strategies down to those eligible to trade the opportunity:
// active with auto-trade enabled, profit at or above the strategy's floor,
// both legs on allowed exchanges, and the symbol in the strategy's pair list
// when one is configured. Pure, O(len(strategies)).
func Match(opp domain.Opportunity, strategies []domain.Strategy) []domain.Strategy {
	var matched []domain.Strategy
	for _, s := range strategies {
		if !s.IsActive || !s.AutoTradeEnabled {
			continue
		}
		if opp.ProfitPercentage < s.MinProfitPercentage {
			continue
		}
		if !s.AllowsExchange(opp.BuyExchange) || !s.AllowsExchange(opp.SellExchange) {
			continue
		}
		if !s.AllowsPair(opp.Symbol) {
			continue
		}
		matched = append(matched, s)
	}
	return matched
}
