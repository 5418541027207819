package exchange

import "strings"

// validQuotes are the quote currencies accepted for cross-exchange
// comparison. Anything else is too thin to arbitrage reliably.
var validQuotes = map[string]bool{
	"USDT": true, "USDC": true, "BTC": true, "ETH": true,
	"BUSD": true, "USD": true, "EUR": true, "FDUSD": true, "DAI": true,
}

// NormalizeSymbol converts a venue symbol into canonical BASE/QUOTE form and
// reports whether it is usable. Leveraged-token style names ("$X", leading
// digits), settle-suffixed derivatives symbols ("BTC/USDT:USDT") and exotic
// quotes are rejected or cleaned the same way on every venue so the same
// pair compares across exchanges.
func NormalizeSymbol(symbol string) (string, bool) {
	if symbol == "" || strings.HasPrefix(symbol, "$") {
		return "", false
	}
	if symbol[0] >= '0' && symbol[0] <= '9' {
		return "", false
	}

	if idx := strings.IndexByte(symbol, ':'); idx >= 0 {
		symbol = symbol[:idx]
	}

	base, quote, ok := strings.Cut(symbol, "/")
	if !ok || len(base) < 2 || len(quote) < 2 {
		return "", false
	}
	if !validQuotes[quote] {
		return "", false
	}
	return base + "/" + quote, true
}

// FilterSymbols normalizes a venue symbol list, dropping unusable entries,
// duplicates, and any symbol whose base currency is blacklisted.
func FilterSymbols(symbols []string, blacklist []string) []string {
	blocked := make(map[string]bool, len(blacklist))
	for _, b := range blacklist {
		blocked[b] = true
	}

	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		norm, ok := NormalizeSymbol(s)
		if !ok || seen[norm] {
			continue
		}
		base, _, _ := strings.Cut(norm, "/")
		if blocked[base] {
			continue
		}
		seen[norm] = true
		out = append(out, norm)
	}
	return out
}
