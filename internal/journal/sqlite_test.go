package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	order := OrderRecord{
		Time:          time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		ClientOrderID: "cid-1",
		OrderID:       "o1",
		ProductID:     "BTC-GBP",
		Side:          "buy",
		Funds:         "25.125",
		Price:         "97.6",
		Filled:        true,
	}
	if err := store.RecordOrder(ctx, order); err != nil {
		t.Fatalf("record order: %v", err)
	}
	if err := store.RecordOrder(ctx, OrderRecord{ClientOrderID: "cid-2", Side: "sell", Reason: "Insufficient funds"}); err != nil {
		t.Fatalf("record order: %v", err)
	}
	orders, err := store.Orders(ctx)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if orders[0].ClientOrderID != "cid-1" || orders[0].Funds != "25.125" || !orders[0].Filled {
		t.Fatalf("unexpected first order: %+v", orders[0])
	}
	if orders[1].Reason != "Insufficient funds" {
		t.Fatalf("unexpected second order: %+v", orders[1])
	}

	cycle := CycleRecord{
		BuyPrice:     "98",
		SellPrice:    "102.9",
		CycleStart:   "100",
		PostSell:     "102.5",
		Delta:        "2.5",
		RunningTotal: "2.5",
	}
	if err := store.RecordCycle(ctx, cycle); err != nil {
		t.Fatalf("record cycle: %v", err)
	}
	cycles, err := store.Cycles(ctx)
	if err != nil {
		t.Fatalf("list cycles: %v", err)
	}
	if len(cycles) != 1 || cycles[0].Delta != "2.5" {
		t.Fatalf("unexpected cycles: %+v", cycles)
	}
}
