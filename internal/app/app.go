package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"cb-swing-bot/internal/account"
	"cb-swing-bot/internal/alerts"
	"cb-swing-bot/internal/coinbase"
	"cb-swing-bot/internal/config"
	"cb-swing-bot/internal/gateway"
	"cb-swing-bot/internal/journal"
	"cb-swing-bot/internal/ledger"
	"cb-swing-bot/internal/metrics"
	"cb-swing-bot/internal/monitor"
	"cb-swing-bot/internal/pricing"
	"cb-swing-bot/internal/sched"
	"cb-swing-bot/internal/timescale"
	"cb-swing-bot/internal/trader"

	"go.uber.org/zap"
)

const feedReconnectDelay = 5 * time.Second

// alerter is the slice of the Telegram client the app depends on.
type alerter interface {
	Send(ctx context.Context, message string) error
	TrySend(ctx context.Context, message string)
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]alerts.Update, error)
}

// App wires the session together: gateway, account tracker, trading machine,
// scheduler and the observability sidecars.
type App struct {
	cfg    *config.Config
	log    *zap.Logger
	params config.TradeParams

	gw        gateway.Gateway
	tracker   *account.Tracker
	journal   *journal.Store
	metrics   *metrics.Metrics
	prom      *metrics.Prometheus
	timescale *timescale.Writer
	alerts    alerter
	monitor   *monitor.Monitor

	ledger  *ledger.Ledger
	machine *trader.Machine
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	params, err := cfg.Trade.Params()
	if err != nil {
		return nil, err
	}
	creds, err := coinbase.CredentialsFromEnv(cfg.Live)
	if err != nil {
		return nil, err
	}
	baseURL := coinbase.SandboxBaseURL
	feedURL := coinbase.SandboxWSURL
	if cfg.Live {
		baseURL = coinbase.LiveBaseURL
		feedURL = coinbase.LiveWSURL
	}
	client := coinbase.New(baseURL, creds, cfg.REST.Timeout, log)
	tracker := account.New(client, log, cfg.Trade.TradingCurrency, cfg.Trade.CryptoCurrency, params.PercentOfAvailable)

	app := &App{
		cfg:     cfg,
		log:     log,
		params:  params,
		gw:      client,
		tracker: tracker,
		metrics: metrics.NewNoop(),
		alerts:  alerts.NewTelegram(cfg.Telegram, log),
	}
	if cfg.Metrics.Enabled {
		app.prom = metrics.NewPrometheus()
		app.metrics = app.prom.Metrics
	}
	if cfg.Journal.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.Journal.Path), 0o755); err != nil {
			return nil, err
		}
		store, err := journal.NewStore(cfg.Journal.Path)
		if err != nil {
			return nil, err
		}
		app.journal = store
	}
	writer, err := timescale.New(cfg.Timescale, log)
	if err != nil {
		return nil, err
	}
	app.timescale = writer
	if cfg.Monitor.Enabled {
		app.monitor = monitor.New(feedURL, cfg.Trade.Product, feedReconnectDelay, log)
	}
	return app, nil
}

// bootstrap refreshes the accounts, enforces the minimum starting balance,
// fetches the opening price and builds the ledger and machine. Any failure
// here is fatal to the session.
func (a *App) bootstrap(ctx context.Context) error {
	if err := a.tracker.Refresh(ctx); err != nil {
		return fmt.Errorf("initial account refresh: %w", err)
	}
	starting := a.tracker.Trading().Available
	if starting.LessThan(a.params.MinimumStartingBalance) {
		msg := fmt.Sprintf("starting balance %s %s is below the minimum %s, refusing to trade",
			starting, a.cfg.Trade.TradingCurrency, a.params.MinimumStartingBalance)
		a.alerts.TrySend(ctx, msg)
		return errors.New(msg)
	}
	opening, err := a.gw.GetTicker(ctx, a.cfg.Trade.Product)
	if err != nil {
		return fmt.Errorf("opening ticker: %w", err)
	}

	a.ledger = ledger.New(starting)
	calc := pricing.Calculator{
		DipPercent:      a.params.DipPercent,
		UpTrendPercent:  a.params.UpTrendPercent,
		StopLossPercent: a.params.StopLossPercent,
		ProfitPercent:   a.params.ProfitPercent,
	}
	var jrnl journal.Journal = journal.Noop{}
	if a.journal != nil {
		jrnl = a.journal
	}
	a.machine = trader.NewMachine(
		trader.Config{ProductID: a.cfg.Trade.Product, PriceRange: a.params.PriceRange},
		a.gw, a.tracker, a.ledger, calc, jrnl, a.metrics, a.log, opening.Price,
	)

	a.log.Info("session started",
		zap.String("product", a.cfg.Trade.Product),
		zap.Bool("live", a.cfg.Live),
		zap.String("opening_price", opening.Price.String()),
		zap.String("initial_funds", starting.String()),
	)
	a.alerts.TrySend(ctx, fmt.Sprintf("Session started: %s at %s, funds %s %s",
		a.cfg.Trade.Product, opening.Price, starting, a.cfg.Trade.TradingCurrency))
	return nil
}

// Run bootstraps the session and drives the evaluation loop until ctx is
// canceled. Once the loop is running every failure is absorbed and retried on
// a later tick.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	if err := a.bootstrap(ctx); err != nil {
		return err
	}

	a.timescale.Start(ctx)
	if a.prom != nil {
		a.serveMetrics(ctx)
	}
	if a.monitor != nil {
		go func() {
			if err := a.monitor.Run(ctx); err != nil && ctx.Err() == nil {
				a.log.Warn("price feed monitor stopped", zap.Error(err))
			}
		}()
	}
	a.startOperator(ctx)

	scheduler := sched.New(a.cfg.Trade.Interval, a.log, a.metrics.TicksSkipped.Inc)
	return scheduler.Run(ctx, a.tick)
}

// tick is one evaluation: fetch the market price, run the machine, publish
// the resulting snapshot. A ticker failure skips the tick; state is untouched.
// A state transition means an order filled, and every fill is alerted.
func (a *App) tick(ctx context.Context) {
	ticker, err := a.gw.GetTicker(ctx, a.cfg.Trade.Product)
	if err != nil {
		a.log.Warn("ticker fetch failed, skipping evaluation", zap.Error(err))
		return
	}
	before := a.machine.Snapshot().State
	a.machine.Evaluate(ctx, ticker.Price)
	snap := a.machine.Snapshot()
	if snap.State != before {
		switch snap.State {
		case trader.StateAwaitingSell:
			a.alerts.TrySend(ctx, fmt.Sprintf("BUY filled: %s at %s, profit target %s, stop loss %s",
				a.cfg.Trade.Product, snap.BuyPrice, snap.Thresholds.Profit, snap.Thresholds.StopLoss))
		case trader.StateAwaitingBuy:
			a.alerts.TrySend(ctx, fmt.Sprintf("SELL filled: %s at %s, earnings %s %s",
				a.cfg.Trade.Product, ticker.Price, snap.RunningEarnings, a.cfg.Trade.TradingCurrency))
		}
	}
	a.log.Debug("evaluated",
		zap.String("state", string(snap.State)),
		zap.String("price", ticker.Price.String()),
		zap.String("anchor", snap.AnchorPrice.String()),
		zap.String("earnings", snap.RunningEarnings.String()),
	)
	a.publishEvaluation(ticker.Time, snap)
}

func (a *App) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.prom.Handler())
	server := &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	a.log.Info("metrics listening", zap.String("addr", a.cfg.Metrics.Addr))
}

func (a *App) close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.log.Warn("journal close failed", zap.Error(err))
		}
	}
	if err := a.timescale.Close(); err != nil {
		a.log.Warn("timescale close failed", zap.Error(err))
	}
}
