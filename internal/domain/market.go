package domain

import "time"

// MarketType distinguishes spot and derivatives markets. Opportunities are
// never matched across market types.
type MarketType string

const (
	MarketSpot    MarketType = "spot"
	MarketFutures MarketType = "futures"
)

// MarketTypes lists all market types in analysis order.
var MarketTypes = []MarketType{MarketSpot, MarketFutures}

// PriceSample is one observed price for a symbol on one exchange. Samples are
// immutable; a sample older than the configured staleness threshold is
// treated as absent by the price source.
type PriceSample struct {
	Symbol     string
	Exchange   string
	Price      float64
	MarketType MarketType
	ObservedAt time.Time
}

// Opportunity is a detected directional price spread for one symbol between
// two exchanges. Its ID is derived from (symbol, buy, sell, marketType) so
// that repeated detections of the same spread map to the same logical entity.
type Opportunity struct {
	ID               string
	Symbol           string
	BuyExchange      string
	SellExchange     string
	BuyPrice         float64
	SellPrice        float64
	ProfitPercentage float64
	MarketType       MarketType
	FirstSeenAt      time.Time
	LastSeenAt       time.Time
}

// OpportunityID builds the deterministic identity key for a directional
// spread. The timestamp is deliberately excluded.
func OpportunityID(symbol, buyExchange, sellExchange string, market MarketType) string {
	return symbol + "|" + buyExchange + "|" + sellExchange + "|" + string(market)
}

// Key returns the opportunity's identity key, recomputing it when ID is unset.
func (o Opportunity) Key() string {
	if o.ID != "" {
		return o.ID
	}
	return OpportunityID(o.Symbol, o.BuyExchange, o.SellExchange, o.MarketType)
}
