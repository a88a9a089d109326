package trader

import (
	"cb-swing-bot/internal/gateway"
	"cb-swing-bot/internal/pricing"

	"github.com/shopspring/decimal"
)

type State string

const (
	StateAwaitingBuy  State = "AWAITING_BUY"
	StateAwaitingSell State = "AWAITING_SELL"
)

// Snapshot is a read-only view of the machine for display. Consumers must
// never feed it back into trading decisions.
type Snapshot struct {
	State           State
	AnchorPrice     decimal.Decimal
	LastPrice       decimal.Decimal
	Thresholds      pricing.ThresholdSet
	BuyPrice        decimal.Decimal
	HasBuyPrice     bool
	TradingBalance  gateway.Balance
	CryptoBalance   gateway.Balance
	InitialFunds    decimal.Decimal
	RunningEarnings decimal.Decimal
}
