package domain

import "context"

// OrderSide is the direction of one leg.
type OrderSide string

const (
	OrderBuy  OrderSide = "buy"
	OrderSell OrderSide = "sell"
)

// Credentials are the API credentials for one user on one exchange. The
// passphrase is only required by some venues.
type Credentials struct {
	Key        string
	Secret     string
	Passphrase string
}

// OrderRequest describes one limit order leg.
type OrderRequest struct {
	Symbol   string
	Side     OrderSide
	Quantity float64
	Price    float64
}

// OrderResult is the venue's acknowledgement of a placed order.
type OrderResult struct {
	OrderID string
}

// OrderAdapter places orders on one exchange. The trade executor depends only
// on this interface; one implementation exists per supported venue.
type OrderAdapter interface {
	// Exchange returns the venue name the adapter serves, matching the
	// exchange names used in price samples and strategies.
	Exchange() string
	// PlaceOrder submits a limit order with the given credentials. A non-nil
	// error is terminal for the leg; the engine performs no compensation.
	PlaceOrder(ctx context.Context, creds Credentials, req OrderRequest) (OrderResult, error)
}
