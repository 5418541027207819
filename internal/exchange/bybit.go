package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mvolkov/spreadbot/internal/domain"
)

const (
	bybitSubscribeBatch = 10
	bybitPingInterval   = 20 * time.Second
)

// BybitConnector streams last-trade prices from the Bybit v5 public
// websocket and discovers tradable instruments over REST.
type BybitConnector struct {
	wsSpotURL    string
	wsFuturesURL string
	restURL      string
	httpClient   *http.Client
}

// NewBybitConnector creates a connector for the given public endpoints.
func NewBybitConnector(wsSpotURL, wsFuturesURL, restURL string) *BybitConnector {
	return &BybitConnector{
		wsSpotURL:    wsSpotURL,
		wsFuturesURL: wsFuturesURL,
		restURL:      restURL,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Name returns the venue name.
func (c *BybitConnector) Name() string { return "Bybit" }

func bybitCategory(market domain.MarketType) string {
	if market == domain.MarketFutures {
		return "linear"
	}
	return "spot"
}

// bybitInstrument converts "BTC/USDT" to Bybit's "BTCUSDT".
func bybitInstrument(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "")
}

// Symbols fetches instruments-info and returns normalized pairs.
func (c *BybitConnector) Symbols(ctx context.Context, market domain.MarketType) ([]string, error) {
	url := fmt.Sprintf("%s/v5/market/instruments-info?category=%s&limit=1000",
		c.restURL, bybitCategory(market))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("bybit: create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bybit: instruments request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bybit: instruments status %d", resp.StatusCode)
	}

	var payload struct {
		RetCode int    `json:"retCode"`
		RetMsg  string `json:"retMsg"`
		Result  struct {
			List []struct {
				Symbol    string `json:"symbol"`
				BaseCoin  string `json:"baseCoin"`
				QuoteCoin string `json:"quoteCoin"`
				Status    string `json:"status"`
			} `json:"list"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("bybit: decode instruments: %w", err)
	}
	if payload.RetCode != 0 {
		return nil, fmt.Errorf("bybit: instruments error %d: %s", payload.RetCode, payload.RetMsg)
	}

	symbols := make([]string, 0, len(payload.Result.List))
	for _, inst := range payload.Result.List {
		if inst.Status != "Trading" {
			continue
		}
		symbols = append(symbols, inst.BaseCoin+"/"+inst.QuoteCoin)
	}
	return symbols, nil
}

// Stream subscribes to tickers for the given symbols and forwards last
// prices until the context is cancelled or the socket fails.
func (c *BybitConnector) Stream(ctx context.Context, market domain.MarketType, symbols []string, out chan<- domain.PriceSample) error {
	wsURL := c.wsSpotURL
	if market == domain.MarketFutures {
		wsURL = c.wsFuturesURL
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("bybit: dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	// Unblock ReadMessage on cancellation.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	// Map instrument names in inbound topics back to canonical symbols.
	bySymbol := make(map[string]string, len(symbols))
	args := make([]string, 0, len(symbols))
	for _, s := range symbols {
		inst := bybitInstrument(s)
		bySymbol[inst] = s
		args = append(args, "tickers."+inst)
	}
	for start := 0; start < len(args); start += bybitSubscribeBatch {
		end := start + bybitSubscribeBatch
		if end > len(args) {
			end = len(args)
		}
		sub := map[string]any{"op": "subscribe", "args": args[start:end]}
		if err := conn.WriteJSON(sub); err != nil {
			return fmt.Errorf("bybit: subscribe: %w", err)
		}
	}

	// Bybit drops idle connections without application-level pings.
	go func() {
		ticker := time.NewTicker(bybitPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = conn.WriteJSON(map[string]any{"op": "ping"})
			}
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("bybit: %w: %v", domain.ErrWSDisconnect, err)
		}

		var msg struct {
			Topic string `json:"topic"`
			Data  *struct {
				Symbol    string `json:"symbol"`
				LastPrice string `json:"lastPrice"`
			} `json:"data"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		inst, ok := strings.CutPrefix(msg.Topic, "tickers.")
		if !ok || msg.Data == nil || msg.Data.LastPrice == "" {
			continue
		}
		symbol, ok := bySymbol[inst]
		if !ok {
			continue
		}
		price, err := strconv.ParseFloat(msg.Data.LastPrice, 64)
		if err != nil || price <= 0 {
			continue
		}

		sample := domain.PriceSample{
			Symbol:     symbol,
			Exchange:   c.Name(),
			Price:      price,
			MarketType: market,
			ObservedAt: time.Now(),
		}
		select {
		case out <- sample:
		case <-ctx.Done():
			return nil
		}
	}
}

// drainBody makes sure keep-alive connections can be reused after errors.
func drainBody(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}

// Compile-time interface check.
var _ Connector = (*BybitConnector)(nil)
