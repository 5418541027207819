// Package exchange contains the per-venue integrations: public websocket
// ticker feeds used by the price board, REST symbol discovery, and the
// authenticated order adapters used by the trade executor.
package exchange

import (
	"context"

	"github.com/mvolkov/spreadbot/internal/domain"
)

// Connector is one venue's market-data integration. Implementations never
// need credentials; all feeds are public.
type Connector interface {
	// Name returns the venue name used in price samples and strategies.
	Name() string
	// Symbols fetches the tradable pairs for one market type, normalized to
	// BASE/QUOTE form.
	Symbols(ctx context.Context, market domain.MarketType) ([]string, error)
	// Stream connects, subscribes to the given symbols, and delivers samples
	// to out until the context is cancelled or the connection fails. A nil
	// return means clean shutdown; any error is a candidate for retry by the
	// supervisor.
	Stream(ctx context.Context, market domain.MarketType, symbols []string, out chan<- domain.PriceSample) error
}
