package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mvolkov/spreadbot/internal/domain"
)

// BinanceOrderAdapter places signed spot limit orders on Binance.
type BinanceOrderAdapter struct {
	baseURL    string
	httpClient *http.Client
}

// NewBinanceOrderAdapter creates an adapter for the given REST base URL
// (production: https://api.binance.com).
func NewBinanceOrderAdapter(baseURL string) *BinanceOrderAdapter {
	return &BinanceOrderAdapter{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Exchange returns the venue name.
func (a *BinanceOrderAdapter) Exchange() string { return "Binance" }

// PlaceOrder submits a GTC limit order. The signature is HMAC-SHA256 of the
// query string, hex encoded, appended as the signature parameter.
func (a *BinanceOrderAdapter) PlaceOrder(ctx context.Context, creds domain.Credentials, req domain.OrderRequest) (domain.OrderResult, error) {
	params := url.Values{}
	params.Set("symbol", strings.ReplaceAll(req.Symbol, "/", ""))
	params.Set("side", strings.ToUpper(string(req.Side)))
	params.Set("type", "LIMIT")
	params.Set("timeInForce", "GTC")
	params.Set("quantity", strconv.FormatFloat(req.Quantity, 'f', 8, 64))
	params.Set("price", strconv.FormatFloat(req.Price, 'f', 8, 64))
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))

	query := params.Encode()
	signature := hmacSHA256Hex(creds.Secret, query)
	endpoint := fmt.Sprintf("%s/api/v3/order?%s&signature=%s", a.baseURL, query, signature)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("binance: create request: %w", err)
	}
	httpReq.Header.Set("X-MBX-APIKEY", creds.Key)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("binance: place order: %w", err)
	}
	defer drainBody(resp.Body)

	var payload struct {
		OrderID int64  `json:"orderId"`
		Code    int    `json:"code"`
		Msg     string `json:"msg"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.OrderResult{}, fmt.Errorf("binance: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.OrderResult{}, fmt.Errorf("binance: order rejected (%d): %s", payload.Code, payload.Msg)
	}

	return domain.OrderResult{OrderID: strconv.FormatInt(payload.OrderID, 10)}, nil
}

// Compile-time interface check.
var _ domain.OrderAdapter = (*BinanceOrderAdapter)(nil)
