package gateway

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Ticker is the latest trade price for a product.
type Ticker struct {
	Price decimal.Decimal
	Time  time.Time
}

// Balance is one currency account as reported by the exchange.
type Balance struct {
	ID        string
	Currency  string
	Available decimal.Decimal
	Hold      decimal.Decimal
}

// OrderRequest describes a market order. Exactly one of Funds (quote, BUY)
// or Size (base, SELL) is set. ClientOrderID is an idempotency key: fresh
// per submission attempt, never reused.
type OrderRequest struct {
	ClientOrderID string
	ProductID     string
	Side          Side
	Funds         decimal.Decimal
	Size          decimal.Decimal
}

// OrderResult reports the outcome of a submission. Ordinary rejections
// (insufficient funds, product halted) come back with Filled=false and a
// Reason; only transport and auth faults surface as errors.
type OrderResult struct {
	OrderID   string
	Filled    bool
	FillPrice decimal.Decimal
	Reason    string
}

// Gateway is the exchange surface the trading core depends on. Calls are
// stateless and safe for concurrent use.
type Gateway interface {
	GetTicker(ctx context.Context, productID string) (Ticker, error)
	ListAccounts(ctx context.Context) ([]Balance, error)
	GetAccount(ctx context.Context, id string) (Balance, error)
	SubmitOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
}
