package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mvolkov/spreadbot/internal/domain"
)

const bybitRecvWindow = "5000"

// BybitOrderAdapter places signed spot limit orders on Bybit v5.
type BybitOrderAdapter struct {
	baseURL    string
	httpClient *http.Client
}

// NewBybitOrderAdapter creates an adapter for the given REST base URL
// (production: https://api.bybit.com).
func NewBybitOrderAdapter(baseURL string) *BybitOrderAdapter {
	return &BybitOrderAdapter{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Exchange returns the venue name.
func (a *BybitOrderAdapter) Exchange() string { return "Bybit" }

// PlaceOrder submits a limit order. The v5 signature is HMAC-SHA256 of
// timestamp + api key + recv window + JSON body, hex encoded, sent in the
// X-BAPI-SIGN header.
func (a *BybitOrderAdapter) PlaceOrder(ctx context.Context, creds domain.Credentials, req domain.OrderRequest) (domain.OrderResult, error) {
	side := "Buy"
	if req.Side == domain.OrderSell {
		side = "Sell"
	}

	body, err := json.Marshal(map[string]string{
		"category":  "spot",
		"symbol":    strings.ReplaceAll(req.Symbol, "/", ""),
		"side":      side,
		"orderType": "Limit",
		"qty":       strconv.FormatFloat(req.Quantity, 'f', -1, 64),
		"price":     strconv.FormatFloat(req.Price, 'f', -1, 64),
	})
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("bybit: marshal order: %w", err)
	}

	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	signature := hmacSHA256Hex(creds.Secret, timestamp+creds.Key+bybitRecvWindow+string(body))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/v5/order/create", bytes.NewReader(body))
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("bybit: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-BAPI-API-KEY", creds.Key)
	httpReq.Header.Set("X-BAPI-TIMESTAMP", timestamp)
	httpReq.Header.Set("X-BAPI-RECV-WINDOW", bybitRecvWindow)
	httpReq.Header.Set("X-BAPI-SIGN", signature)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("bybit: place order: %w", err)
	}
	defer drainBody(resp.Body)

	var payload struct {
		RetCode int    `json:"retCode"`
		RetMsg  string `json:"retMsg"`
		Result  struct {
			OrderID string `json:"orderId"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.OrderResult{}, fmt.Errorf("bybit: decode response: %w", err)
	}
	if payload.RetCode != 0 {
		return domain.OrderResult{}, fmt.Errorf("bybit: order rejected (%d): %s", payload.RetCode, payload.RetMsg)
	}

	return domain.OrderResult{OrderID: payload.Result.OrderID}, nil
}

// Compile-time interface check.
var _ domain.OrderAdapter = (*BybitOrderAdapter)(nil)
