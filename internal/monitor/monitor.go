package monitor

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"cb-swing-bot/internal/coinbase/ws"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type tickerMessage struct {
	Type      string `json:"type"`
	ProductID string `json:"product_id"`
	Price     string `json:"price"`
	High24h   string `json:"high_24h"`
	Low24h    string `json:"low_24h"`
	TradeID   int64  `json:"trade_id"`
	Message   string `json:"message"`
}

// Monitor is a passive price display: it subscribes to the exchange ticker
// channel and logs trades. It never touches trading state.
type Monitor struct {
	feed    *ws.Client
	log     *zap.Logger
	product string

	mu        sync.Mutex
	lastPrice decimal.Decimal
	hasPrice  bool
}

func New(feedURL, product string, reconnectDelay time.Duration, log *zap.Logger) *Monitor {
	return &Monitor{
		feed:    ws.New(feedURL, reconnectDelay, log),
		log:     log,
		product: product,
	}
}

func (m *Monitor) Run(ctx context.Context) error {
	if err := m.feed.Connect(ctx); err != nil {
		return err
	}
	sub := map[string]any{
		"type":        "subscribe",
		"product_ids": []string{m.product},
		"channels":    []string{"ticker"},
	}
	if err := m.feed.Subscribe(ctx, sub); err != nil {
		return err
	}
	return m.feed.Run(ctx, m.handle)
}

func (m *Monitor) handle(raw json.RawMessage) {
	var msg tickerMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	switch msg.Type {
	case "error":
		m.log.Error("feed subscription error", zap.String("message", msg.Message))
	case "ticker":
		if msg.TradeID == 0 {
			return
		}
		price, err := decimal.NewFromString(msg.Price)
		if err != nil {
			return
		}
		m.mu.Lock()
		previous := m.lastPrice
		hadPrice := m.hasPrice
		m.lastPrice = price
		m.hasPrice = true
		m.mu.Unlock()
		direction := "flat"
		if hadPrice {
			switch {
			case price.GreaterThan(previous):
				direction = "up"
			case price.LessThan(previous):
				direction = "down"
			}
		}
		m.log.Info("ticker",
			zap.String("product", msg.ProductID),
			zap.String("price", msg.Price),
			zap.String("direction", direction),
			zap.String("high_24h", msg.High24h),
			zap.String("low_24h", msg.Low24h),
		)
	}
}

// LastPrice returns the most recent feed price, if any has arrived.
func (m *Monitor) LastPrice() (decimal.Decimal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPrice, m.hasPrice
}
