package trader

import (
	"context"
	"sync"

	"cb-swing-bot/internal/account"
	"cb-swing-bot/internal/gateway"
	"cb-swing-bot/internal/journal"
	"cb-swing-bot/internal/ledger"
	"cb-swing-bot/internal/metrics"
	"cb-swing-bot/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Config struct {
	ProductID  string
	PriceRange decimal.Decimal
}

// pendingCycle is a filled SELL whose realized delta has not been recorded
// yet because the balance refresh after the fill failed. It is settled at
// the top of the next evaluation.
type pendingCycle struct {
	cycleStart decimal.Decimal
	buyPrice   decimal.Decimal
	sellPrice  decimal.Decimal
}

// Machine is the two-state trading loop. All mutable trading state lives
// here; evaluations are serialized by the scheduler and the mutex only
// exists so Snapshot readers observe consistent state.
type Machine struct {
	cfg     Config
	gw      gateway.Gateway
	tracker *account.Tracker
	ledger  *ledger.Ledger
	calc    pricing.Calculator
	journal journal.Journal
	metrics *metrics.Metrics
	log     *zap.Logger

	mu          sync.Mutex
	state       State
	anchor      decimal.Decimal
	thresholds  pricing.ThresholdSet
	buyPrice    decimal.Decimal
	hasBuyPrice bool
	cycleStart  decimal.Decimal
	anchorStale bool
	lastPrice   decimal.Decimal
	pending     *pendingCycle
}

// NewMachine builds the machine in AwaitingBuy with thresholds anchored to
// the opening market price.
func NewMachine(cfg Config, gw gateway.Gateway, tracker *account.Tracker, led *ledger.Ledger, calc pricing.Calculator, jrnl journal.Journal, met *metrics.Metrics, log *zap.Logger, openingPrice decimal.Decimal) *Machine {
	if jrnl == nil {
		jrnl = journal.Noop{}
	}
	if met == nil {
		met = metrics.NewNoop()
	}
	return &Machine{
		cfg:        cfg,
		gw:         gw,
		tracker:    tracker,
		ledger:     led,
		calc:       calc,
		journal:    jrnl,
		metrics:    met,
		log:        log,
		state:      StateAwaitingBuy,
		anchor:     openingPrice,
		thresholds: calc.FromAnchor(openingPrice),
	}
}

// Evaluate runs one decision step for the current market price. At most one
// order is submitted and at most one state transition happens per call.
// Every failure mode is recoverable: the state is held and the next tick
// retries with unchanged thresholds.
func (m *Machine) Evaluate(ctx context.Context, price decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastPrice = price
	m.settlePending(ctx)
	if m.anchorStale {
		m.anchor = price
		m.thresholds = m.calc.FromAnchor(price)
		m.anchorStale = false
		m.log.Info("re-anchored thresholds",
			zap.String("anchor", m.anchor.String()),
			zap.String("dip", m.thresholds.Dip.String()),
			zap.String("upward_trend", m.thresholds.UpwardTrend.String()),
			zap.String("profit", m.thresholds.Profit.String()),
			zap.String("stop_loss", m.thresholds.StopLoss.String()),
		)
	}

	switch m.state {
	case StateAwaitingBuy:
		// A new cycle must not start while the previous one is unrecorded:
		// a second SELL would overwrite the pending record and its earnings
		// would never reach the ledger.
		if m.pending != nil {
			m.log.Warn("cycle settlement outstanding, holding buy search")
			return
		}
		// Dip wins when both bands match.
		band := ""
		if pricing.InBand(price, m.thresholds.Dip, m.cfg.PriceRange) {
			band = "dip"
		} else if pricing.InBand(price, m.thresholds.UpwardTrend, m.cfg.PriceRange) {
			band = "upward_trend"
		}
		if band == "" {
			return
		}
		m.submitBuy(ctx, price, band)
	case StateAwaitingSell:
		// Profit wins when both bands match.
		band := ""
		if pricing.InBand(price, m.thresholds.Profit, m.cfg.PriceRange) {
			band = "profit"
		} else if pricing.InBand(price, m.thresholds.StopLoss, m.cfg.PriceRange) {
			band = "stop_loss"
		}
		if band == "" {
			return
		}
		m.submitSell(ctx, price, band)
	}
}

func (m *Machine) submitBuy(ctx context.Context, price decimal.Decimal, band string) {
	cycleStart := m.tracker.Trading().Available
	funds := m.tracker.FundAmount()
	req := gateway.OrderRequest{
		ClientOrderID: uuid.NewString(),
		ProductID:     m.cfg.ProductID,
		Side:          gateway.SideBuy,
		Funds:         funds,
	}
	m.log.Info("price entered buy band",
		zap.String("band", band),
		zap.String("price", price.String()),
		zap.String("funds", funds.String()),
	)
	result, ok := m.submit(ctx, req, price)
	if !ok {
		return
	}
	fill := result.FillPrice
	if fill.IsZero() {
		fill = price
	}
	m.state = StateAwaitingSell
	m.buyPrice = fill
	m.hasBuyPrice = true
	m.anchor = fill
	m.thresholds = m.calc.FromAnchor(fill)
	m.cycleStart = cycleStart
	m.metrics.BuysFilled.Inc()
	m.log.Info("buy filled",
		zap.String("order_id", result.OrderID),
		zap.String("fill_price", fill.String()),
		zap.String("profit_target", m.thresholds.Profit.String()),
		zap.String("stop_loss", m.thresholds.StopLoss.String()),
	)
	if err := m.tracker.Refresh(ctx); err != nil {
		m.log.Warn("account refresh after buy failed", zap.Error(err))
	}
}

func (m *Machine) submitSell(ctx context.Context, price decimal.Decimal, band string) {
	size := m.tracker.Crypto().Available
	if size.IsZero() {
		m.log.Warn("sell band matched but crypto balance is zero")
		if err := m.tracker.Refresh(ctx); err != nil {
			m.log.Warn("account refresh failed", zap.Error(err))
		}
		return
	}
	req := gateway.OrderRequest{
		ClientOrderID: uuid.NewString(),
		ProductID:     m.cfg.ProductID,
		Side:          gateway.SideSell,
		Size:          size,
	}
	m.log.Info("price entered sell band",
		zap.String("band", band),
		zap.String("price", price.String()),
		zap.String("size", size.String()),
	)
	result, ok := m.submit(ctx, req, price)
	if !ok {
		return
	}
	fill := result.FillPrice
	if fill.IsZero() {
		fill = price
	}
	m.metrics.SellsFilled.Inc()
	m.log.Info("sell filled",
		zap.String("order_id", result.OrderID),
		zap.String("fill_price", fill.String()),
	)
	m.state = StateAwaitingBuy
	m.hasBuyPrice = false
	// The next cycle is a fresh buy search: its anchor is the next observed
	// market price, not the sell price.
	m.anchorStale = true
	m.pending = &pendingCycle{
		cycleStart: m.cycleStart,
		buyPrice:   m.buyPrice,
		sellPrice:  fill,
	}
	m.settlePending(ctx)
}

// submit sends the order, journals the attempt and classifies the outcome.
// ok is true only for a fill.
func (m *Machine) submit(ctx context.Context, req gateway.OrderRequest, price decimal.Decimal) (gateway.OrderResult, bool) {
	m.metrics.OrdersPlaced.Inc()
	result, err := m.gw.SubmitOrder(ctx, req)
	record := journal.OrderRecord{
		ClientOrderID: req.ClientOrderID,
		OrderID:       result.OrderID,
		ProductID:     req.ProductID,
		Side:          string(req.Side),
		Price:         price.String(),
		Filled:        result.Filled,
		Reason:        result.Reason,
	}
	if !req.Funds.IsZero() {
		record.Funds = req.Funds.String()
	}
	if !req.Size.IsZero() {
		record.Size = req.Size.String()
	}
	if err != nil {
		record.Reason = err.Error()
	}
	if jerr := m.journal.RecordOrder(ctx, record); jerr != nil {
		m.log.Warn("journal write failed", zap.Error(jerr))
	}
	if err != nil {
		m.metrics.OrdersFailed.Inc()
		m.log.Warn("order submission failed, retrying next tick",
			zap.String("side", string(req.Side)),
			zap.Error(err),
		)
		return gateway.OrderResult{}, false
	}
	if !result.Filled {
		m.metrics.OrdersRejected.Inc()
		m.log.Warn("order rejected, retrying next tick",
			zap.String("side", string(req.Side)),
			zap.String("reason", result.Reason),
		)
		return result, false
	}
	return result, true
}

// settlePending records the realized delta of a filled SELL exactly once.
// If the balance refresh fails the cycle stays pending and is settled on a
// later evaluation; it is cleared only after a successful record.
func (m *Machine) settlePending(ctx context.Context) {
	if m.pending == nil {
		return
	}
	if err := m.tracker.Refresh(ctx); err != nil {
		m.log.Warn("account refresh after sell failed, cycle settlement deferred", zap.Error(err))
		return
	}
	postSell := m.tracker.Trading().Available
	entry := m.ledger.Record(m.pending.cycleStart, postSell)
	m.metrics.CyclesCompleted.Inc()
	m.log.Info("cycle completed",
		zap.String("buy_price", m.pending.buyPrice.String()),
		zap.String("sell_price", m.pending.sellPrice.String()),
		zap.String("delta", entry.Delta.String()),
		zap.String("total_earnings", m.ledger.Total().String()),
	)
	record := journal.CycleRecord{
		BuyPrice:     m.pending.buyPrice.String(),
		SellPrice:    m.pending.sellPrice.String(),
		CycleStart:   m.pending.cycleStart.String(),
		PostSell:     postSell.String(),
		Delta:        entry.Delta.String(),
		RunningTotal: m.ledger.Total().String(),
	}
	if err := m.journal.RecordCycle(ctx, record); err != nil {
		m.log.Warn("journal write failed", zap.Error(err))
	}
	m.pending = nil
}

// Snapshot returns a consistent read-only view for display.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		State:           m.state,
		AnchorPrice:     m.anchor,
		LastPrice:       m.lastPrice,
		Thresholds:      m.thresholds,
		BuyPrice:        m.buyPrice,
		HasBuyPrice:     m.hasBuyPrice,
		TradingBalance:  m.tracker.Trading(),
		CryptoBalance:   m.tracker.Crypto(),
		InitialFunds:    m.ledger.InitialFunds(),
		RunningEarnings: m.ledger.Total(),
	}
}
