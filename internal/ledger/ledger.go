package ledger

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one completed BUY->SELL cycle's realized result.
type Entry struct {
	Time       time.Time
	CycleStart decimal.Decimal
	PostSell   decimal.Decimal
	Delta      decimal.Decimal
}

// Ledger accumulates realized earnings for the process lifetime. Entries are
// append-only; nothing is persisted.
type Ledger struct {
	mu           sync.RWMutex
	initialFunds decimal.Decimal
	entries      []Entry
	total        decimal.Decimal
}

// New captures the session-opening trading-currency balance. The value is
// immutable for the session and serves as the first cycle's baseline.
func New(initialFunds decimal.Decimal) *Ledger {
	return &Ledger{initialFunds: initialFunds}
}

// Record appends one cycle's delta: the trading-currency balance after the
// SELL fill minus the balance immediately before that cycle's BUY. Anchoring
// each delta to its own cycle start keeps the running total drift-free.
func (l *Ledger) Record(cycleStart, postSell decimal.Decimal) Entry {
	entry := Entry{
		Time:       time.Now().UTC(),
		CycleStart: cycleStart,
		PostSell:   postSell,
		Delta:      postSell.Sub(cycleStart),
	}
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.total = l.total.Add(entry.Delta)
	l.mu.Unlock()
	return entry
}

func (l *Ledger) Total() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total
}

func (l *Ledger) InitialFunds() decimal.Decimal {
	return l.initialFunds
}

func (l *Ledger) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry(nil), l.entries...)
}
