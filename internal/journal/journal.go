package journal

import (
	"context"
	"time"
)

// OrderRecord is one order submission attempt, filled or not. Decimal values
// are stored as strings to keep the payload exact.
type OrderRecord struct {
	Time          time.Time `msgpack:"time"`
	ClientOrderID string    `msgpack:"client_order_id"`
	OrderID       string    `msgpack:"order_id,omitempty"`
	ProductID     string    `msgpack:"product_id"`
	Side          string    `msgpack:"side"`
	Funds         string    `msgpack:"funds,omitempty"`
	Size          string    `msgpack:"size,omitempty"`
	Price         string    `msgpack:"price"`
	Filled        bool      `msgpack:"filled"`
	Reason        string    `msgpack:"reason,omitempty"`
}

// CycleRecord is one completed BUY->SELL cycle.
type CycleRecord struct {
	Time         time.Time `msgpack:"time"`
	BuyPrice     string    `msgpack:"buy_price"`
	SellPrice    string    `msgpack:"sell_price"`
	CycleStart   string    `msgpack:"cycle_start"`
	PostSell     string    `msgpack:"post_sell"`
	Delta        string    `msgpack:"delta"`
	RunningTotal string    `msgpack:"running_total"`
}

// Journal is an append-only record of what the bot did. It exists for the
// operator; trading decisions never read it back.
type Journal interface {
	RecordOrder(ctx context.Context, record OrderRecord) error
	RecordCycle(ctx context.Context, record CycleRecord) error
	Close() error
}

type Noop struct{}

func (Noop) RecordOrder(ctx context.Context, record OrderRecord) error { return nil }
func (Noop) RecordCycle(ctx context.Context, record CycleRecord) error { return nil }
func (Noop) Close() error                                              { return nil }
