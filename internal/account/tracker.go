package account

import (
	"context"
	"fmt"
	"sync"

	"cb-swing-bot/internal/gateway"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrAccountNotFound signals that a configured currency has no account on
// the exchange. The session cannot run without both accounts.
type ErrAccountNotFound struct {
	Currency string
}

func (e ErrAccountNotFound) Error() string {
	return fmt.Sprintf("no account found for currency %s", e.Currency)
}

var hundred = decimal.NewFromInt(100)

// Tracker caches the trading-currency and crypto-asset balances. Snapshots
// are replaced wholesale on every refresh, never diffed.
type Tracker struct {
	gw              gateway.Gateway
	log             *zap.Logger
	tradingCurrency string
	cryptoCurrency  string
	percent         decimal.Decimal

	mu      sync.RWMutex
	trading gateway.Balance
	crypto  gateway.Balance
}

func New(gw gateway.Gateway, log *zap.Logger, tradingCurrency, cryptoCurrency string, percentOfAvailable decimal.Decimal) *Tracker {
	return &Tracker{
		gw:              gw,
		log:             log,
		tradingCurrency: tradingCurrency,
		cryptoCurrency:  cryptoCurrency,
		percent:         percentOfAvailable,
	}
}

// Refresh fetches all balances and selects the two configured accounts.
func (t *Tracker) Refresh(ctx context.Context) error {
	balances, err := t.gw.ListAccounts(ctx)
	if err != nil {
		return err
	}
	var trading, crypto *gateway.Balance
	for i := range balances {
		switch balances[i].Currency {
		case t.tradingCurrency:
			trading = &balances[i]
		case t.cryptoCurrency:
			crypto = &balances[i]
		}
	}
	if trading == nil {
		return ErrAccountNotFound{Currency: t.tradingCurrency}
	}
	if crypto == nil {
		return ErrAccountNotFound{Currency: t.cryptoCurrency}
	}
	t.mu.Lock()
	t.trading = *trading
	t.crypto = *crypto
	t.mu.Unlock()
	t.log.Debug("accounts refreshed",
		zap.String("trading_available", trading.Available.String()),
		zap.String("crypto_available", crypto.Available.String()),
	)
	return nil
}

func (t *Tracker) Trading() gateway.Balance {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.trading
}

func (t *Tracker) Crypto() gateway.Balance {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.crypto
}

// FundAmount is the quote amount for the next BUY: the configured share of
// the available trading-currency balance, decimal-exact.
func (t *Tracker) FundAmount() decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.trading.Available.Mul(t.percent).Div(hundred)
}
