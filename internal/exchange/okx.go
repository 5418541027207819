package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mvolkov/spreadbot/internal/domain"
)

const okxPingInterval = 25 * time.Second

// OKXConnector streams last-trade prices from the OKX v5 public websocket
// and discovers instruments over REST. Spot and swap share the same
// websocket endpoint; the instrument id carries the market type.
type OKXConnector struct {
	wsURL      string
	restURL    string
	httpClient *http.Client
}

// NewOKXConnector creates a connector for the given public endpoints.
func NewOKXConnector(wsURL, restURL string) *OKXConnector {
	return &OKXConnector{
		wsURL:      wsURL,
		restURL:    restURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Name returns the venue name.
func (c *OKXConnector) Name() string { return "OKX" }

// okxInstrument converts "BTC/USDT" to the venue instrument id.
func okxInstrument(symbol string, market domain.MarketType) string {
	id := strings.ReplaceAll(symbol, "/", "-")
	if market == domain.MarketFutures {
		return id + "-SWAP"
	}
	return id
}

// okxSymbol converts an instrument id back to "BTC/USDT".
func okxSymbol(instID string) string {
	instID = strings.TrimSuffix(instID, "-SWAP")
	return strings.Replace(instID, "-", "/", 1)
}

// Symbols fetches the public instrument list and returns normalized pairs.
func (c *OKXConnector) Symbols(ctx context.Context, market domain.MarketType) ([]string, error) {
	instType := "SPOT"
	if market == domain.MarketFutures {
		instType = "SWAP"
	}
	url := fmt.Sprintf("%s/api/v5/public/instruments?instType=%s", c.restURL, instType)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("okx: create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("okx: instruments request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("okx: instruments status %d", resp.StatusCode)
	}

	var payload struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data []struct {
			InstID string `json:"instId"`
			State  string `json:"state"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("okx: decode instruments: %w", err)
	}
	if payload.Code != "0" {
		return nil, fmt.Errorf("okx: instruments error %s: %s", payload.Code, payload.Msg)
	}

	symbols := make([]string, 0, len(payload.Data))
	for _, inst := range payload.Data {
		if inst.State != "live" {
			continue
		}
		symbols = append(symbols, okxSymbol(inst.InstID))
	}
	return symbols, nil
}

// Stream subscribes to the tickers channel for the given symbols and
// forwards last prices until the context is cancelled or the socket fails.
func (c *OKXConnector) Stream(ctx context.Context, market domain.MarketType, symbols []string, out chan<- domain.PriceSample) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return fmt.Errorf("okx: dial %s: %w", c.wsURL, err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	args := make([]map[string]string, 0, len(symbols))
	for _, s := range symbols {
		args = append(args, map[string]string{
			"channel": "tickers",
			"instId":  okxInstrument(s, market),
		})
	}
	if err := conn.WriteJSON(map[string]any{"op": "subscribe", "args": args}); err != nil {
		return fmt.Errorf("okx: subscribe: %w", err)
	}

	// OKX closes connections idle for 30 seconds.
	go func() {
		ticker := time.NewTicker(okxPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = conn.WriteMessage(websocket.TextMessage, []byte("ping"))
			}
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("okx: %w: %v", domain.ErrWSDisconnect, err)
		}
		if string(message) == "pong" {
			continue
		}

		var msg struct {
			Event string `json:"event"`
			Data  []struct {
				InstID string `json:"instId"`
				Last   string `json:"last"`
			} `json:"data"`
		}
		if err := json.Unmarshal(message, &msg); err != nil || msg.Event != "" {
			continue
		}

		for _, tick := range msg.Data {
			price, err := strconv.ParseFloat(tick.Last, 64)
			if err != nil || price <= 0 {
				continue
			}
			sample := domain.PriceSample{
				Symbol:     okxSymbol(tick.InstID),
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
}

// Compile-time interface check.
var _ Connector = (*OKXConnector)(nil)
