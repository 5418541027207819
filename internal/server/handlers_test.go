package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvolkov/spreadbot/internal/arbitrage"
	"github.com/mvolkov/spreadbot/internal/domain"
)

func seededStore(t *testing.T) *arbitrage.Store {
	t.Helper()
	s := arbitrage.NewStore(2 * time.Minute)
	s.Merge([]domain.Opportunity{
		{
			Symbol:           "BTC/USDT",
			BuyExchange:      "Binance",
			SellExchange:     "Bybit",
			BuyPrice:         100,
			SellPrice:        102,
			ProfitPercentage: 2,
			MarketType:       domain.MarketSpot,
		},
		{
			Symbol:           "ETH/USDT",
			BuyExchange:      "OKX",
			SellExchange:     "Bybit",
			BuyPrice:         2000,
			SellPrice:        2010,
			ProfitPercentage: 0.5,
			MarketType:       domain.MarketFutures,
		},
	}, time.Now())
	return s
}

func TestHandlerHealth(t *testing.T) {
	h := NewHandler(seededStore(t))
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestHandlerListOpportunities(t *testing.T) {
	h := NewHandler(seededStore(t))

	list := func(t *testing.T, target string) (int, map[string]any) {
		t.Helper()
		rec := httptest.NewRecorder()
		h.ListOpportunities(rec, httptest.NewRequest(http.MethodGet, target, nil))
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return rec.Code, body
	}

	t.Run("all markets by default", func(t *testing.T) {
		code, body := list(t, "/api/opportunities")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, float64(2), body["count"])
	})

	t.Run("combined markets sorted by profit", func(t *testing.T) {
		s := arbitrage.NewStore(2 * time.Minute)
		s.Merge([]domain.Opportunity{
			{
				Symbol:           "BTC/USDT",
				BuyExchange:      "Binance",
				SellExchange:     "Bybit",
				ProfitPercentage: 0.8,
				MarketType:       domain.MarketSpot,
			},
			{
				Symbol:           "ETH/USDT",
				BuyExchange:      "OKX",
				SellExchange:     "Bybit",
				ProfitPercentage: 3.1,
				MarketType:       domain.MarketFutures,
			},
		}, time.Now())

		rec := httptest.NewRecorder()
		NewHandler(s).ListOpportunities(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Opportunities []domain.Opportunity
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Opportunities, 2)
		assert.Equal(t, "ETH/USDT", body.Opportunities[0].Symbol)
		assert.Equal(t, "BTC/USDT", body.Opportunities[1].Symbol)
	})

	t.Run("market filter", func(t *testing.T) {
		code, body := list(t, "/api/opportunities?market=spot")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, float64(1), body["count"])
	})

	t.Run("min profit filter", func(t *testing.T) {
		code, body := list(t, "/api/opportunities?min_profit=1")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, float64(1), body["count"])
	})

	t.Run("invalid market rejected", func(t *testing.T) {
		code, body := list(t, "/api/opportunities?market=margin")
		require.Equal(t, http.StatusBadRequest, code)
		assert.Contains(t, body["error"], "market")
	})

	t.Run("invalid min profit rejected", func(t *testing.T) {
		code, _ := list(t, "/api/opportunities?min_profit=abc")
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestHandlerStats(t *testing.T) {
	h := NewHandler(seededStore(t))
	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var stats arbitrage.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(2), stats.TotalOpportunities)
	assert.Equal(t, 2, stats.ActiveCount)
}
