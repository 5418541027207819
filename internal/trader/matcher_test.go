package trader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvolkov/spreadbot/internal/domain"
)

func baseStrategy() domain.Strategy {
	return domain.Strategy{
		ID:                  1,
		UserID:              42,
		Name:                "btc-spread",
		Exchanges:           []string{"Binance", "Bybit"},
		MinProfitPercentage: 1.5,
		MaxTradeAmount:      1000,
		AutoTradeEnabled:    true,
		IsActive:            true,
	}
}

func TestMatch(t *testing.T) {
	opp := domain.Opportunity{
		Symbol:           "BTC/USDT",
		BuyExchange:      "Binance",
		SellExchange:     "Bybit",
		ProfitPercentage: 2,
		MarketType:       domain.MarketSpot,
	}

	t.Run("eligible strategy matches", func(t *testing.T) {
		matched := Match(opp, []domain.Strategy{baseStrategy()})
		require.Len(t, matched, 1)
		assert.Equal(t, int64(1), matched[0].ID)
	})

	t.Run("profit below strategy floor", func(t *testing.T) {
		s := baseStrategy()
		s.MinProfitPercentage = 3
		assert.Empty(t, Match(opp, []domain.Strategy{s}))
	})

	t.Run("inactive strategy skipped", func(t *testing.T) {
		s := baseStrategy()
		s.IsActive = false
		assert.Empty(t, Match(opp, []domain.Strategy{s}))
	})

	t.Run("auto-trade disabled skipped", func(t *testing.T) {
		s := baseStrategy()
		s.AutoTradeEnabled = false
		assert.Empty(t, Match(opp, []domain.Strategy{s}))
	})

	t.Run("both legs must be on allowed exchanges", func(t *testing.T) {
		s := baseStrategy()
		s.Exchanges = []string{"Binance", "OKX"}
		assert.Empty(t, Match(opp, []domain.Strategy{s}))
	})

	t.Run("pair list restricts symbols", func(t *testing.T) {
		s := baseStrategy()
		s.TradingPairs = []string{"ETH/USDT"}
		assert.Empty(t, Match(opp, []domain.Strategy{s}))

		s.TradingPairs = []string{"BTC/USDT", "ETH/USDT"}
		assert.Len(t, Match(opp, []domain.Strategy{s}), 1)
	})

	t.Run("empty pair list allows everything", func(t *testing.T) {
		s := baseStrategy()
		s.TradingPairs = nil
		assert.Len(t, Match(opp, []domain.Strategy{s}), 1)
	})

	t.Run("multiple eligible strategies all match", func(t *testing.T) {
		s2 := baseStrategy()
		s2.ID = 2
		s2.MinProfitPercentage = 0.5
		matched := Match(opp, []domain.Strategy{baseStrategy(), s2})
		assert.Len(t, matched, 2)
	})
}
