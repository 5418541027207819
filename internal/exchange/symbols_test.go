package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSymbol(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"BTC/USDT", "BTC/USDT", true},
		{"BTC/USDT:USDT", "BTC/USDT", true},
		{"ETH/BTC", "ETH/BTC", true},
		{"SOL/EUR", "SOL/EUR", true},
		{"$PEPE/USDT", "", false},
		{"1000SHIB/USDT", "", false},
		{"BTC/XYZ", "", false}, // exotic quote
		{"BTCUSDT", "", false}, // no separator
		{"B/USDT", "", false},  // base too short
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := NormalizeSymbol(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestFilterSymbols(t *testing.T) {
	t.Run("drops duplicates after normalization", func(t *testing.T) {
		out := FilterSymbols([]string{"BTC/USDT", "BTC/USDT:USDT"}, nil)
		assert.Equal(t, []string{"BTC/USDT"}, out)
	})

	t.Run("blacklist blocks base currency", func(t *testing.T) {
		out := FilterSymbols([]string{"TST/USDT", "NEIRO/USDT", "BTC/USDT"}, []string{"TST", "NEIRO"})
		assert.Equal(t, []string{"BTC/USDT"}, out)
	})

	t.Run("unusable symbols are dropped", func(t *testing.T) {
		out := FilterSymbols([]string{"$HYPE/USDT", "BTCUSDT", "ETH/USDT"}, nil)
		assert.Equal(t, []string{"ETH/USDT"}, out)
	})
}
