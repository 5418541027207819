// Package arbitrage implements cross-exchange spread detection: a pure
// pairwise analyzer over price snapshots and a deduplicating, TTL-bounded
// store of currently live opportunities.
package arbitrage

import (
	"github.com/shopspring/decimal"

	"github.com/mvolkov/spreadbot/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Analyzer maps a snapshot of current prices to the full set of profitable
// directed exchange pairs per symbol. It holds no state beyond the threshold
// and is safe to call concurrently with disjoint inputs.
type Analyzer struct {
	minProfitPercentage float64
}

// NewAnalyzer creates an Analyzer with the given global detection threshold,
// in percent.
func NewAnalyzer(minProfitPercentage float64) *Analyzer {
	return &Analyzer{minProfitPercentage: minProfitPercentage}
}

// Find returns every opportunity in the snapshot whose profit percentage
// meets the threshold. Input samples must all belong to the given market type
// and carry positive prices; upstream filtering is responsible for both.
//
// Every ordered pair of distinct exchanges is evaluated independently: both
// directions of a spread are considered, and ties are not collapsed. The
// exchange count per symbol is small, so the quadratic pass is fine.
func (a *Analyzer) Find(samples []domain.PriceSample, market domain.MarketType) []domain.Opportunity {
	var opportunities []domain.Opportunity

	for _, group := range groupBySymbol(samples) {
		// A symbol present on only one exchange yields nothing.
		if len(group) < 2 {
			continue
		}

		for i := range group {
			for j := range group {
				if i == j || group[i].Exchange == group[j].Exchange {
					continue
				}

				buy := decimal.NewFromFloat(group[i].Price)
				sell := decimal.NewFromFloat(group[j].Price)

				// (sell - buy) / buy * 100, in exact decimal arithmetic so
				// tiny spreads are not lost to binary rounding.
				profit, _ := sell.Sub(buy).Div(buy).Mul(hundred).Float64()

				if profit < a.minProfitPercentage {
					continue
				}

				opportunities = append(opportunities, domain.Opportunity{
					ID:               domain.OpportunityID(group[i].Symbol, group[i].Exchange, group[j].Exchange, market),
					Symbol:           group[i].Symbol,
					BuyExchange:      group[i].Exchange,
					SellExchange:     group[j].Exchange,
					BuyPrice:         group[i].Price,
					SellPrice:        group[j].Price,
					ProfitPercentage: profit,
					MarketType:       market,
				})
			}
		}
	}

	return opportunities
}

func groupBySymbol(samples []domain.PriceSample) map[string][]domain.PriceSample {
	groups := make(map[string][]domain.PriceSample)
	for _, s := range samples {
		groups[s.Symbol] = append(groups[s.Symbol], s)
	}
	return groups
}
