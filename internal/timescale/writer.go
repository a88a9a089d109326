package timescale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"cb-swing-bot/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const writeTimeout = 3 * time.Second

// EvaluationSnapshot is one row per evaluation tick: the price the machine
// saw and the state it left behind. Decimal values travel as strings so the
// database, not float64, decides precision.
type EvaluationSnapshot struct {
	Time             time.Time
	Product          string
	State            string
	Price            string
	Anchor           string
	Dip              string
	UpwardTrend      string
	Profit           string
	StopLoss         string
	TradingAvailable string
	CryptoAvailable  string
	EarningsTotal    string
}

// Writer ships evaluation snapshots to TimescaleDB off the trading path:
// enqueue never blocks, a full queue drops rows.
type Writer struct {
	db      *sql.DB
	log     *zap.Logger
	schema  string
	evals   chan EvaluationSnapshot
	started atomic.Bool
	dropped atomic.Uint64
}

func New(cfg config.TimescaleConfig, log *zap.Logger) (*Writer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("timescale dsn is required")
	}
	schema := strings.TrimSpace(cfg.Schema)
	if schema == "" {
		schema = "public"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	writer := &Writer{
		db:     db,
		log:    log,
		schema: schema,
		evals:  make(chan EvaluationSnapshot, queueSize),
	}
	if err := writer.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return writer, nil
}

func (w *Writer) Start(ctx context.Context) {
	if w == nil {
		return
	}
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.run(ctx)
}

func (w *Writer) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}

func (w *Writer) Enqueue(snapshot EvaluationSnapshot) {
	if w == nil {
		return
	}
	select {
	case w.evals <- snapshot:
		return
	default:
		if w.dropped.Add(1) == 1 && w.log != nil {
			w.log.Warn("timescale evaluation queue full")
		}
	}
}

func (w *Writer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-w.evals:
			w.writeEvaluation(ctx, snap)
		}
	}
}

func (w *Writer) ensureSchema(ctx context.Context) error {
	if w.db == nil {
		return errors.New("timescale db not initialized")
	}
	if w.schema != "public" {
		if err := w.exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", w.schema)); err != nil {
			return err
		}
	}
	if err := w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		product TEXT NOT NULL,
		state TEXT NOT NULL,
		price NUMERIC NOT NULL,
		anchor NUMERIC NOT NULL,
		dip NUMERIC NOT NULL,
		upward_trend NUMERIC NOT NULL,
		profit NUMERIC NOT NULL,
		stop_loss NUMERIC NOT NULL,
		trading_available NUMERIC NOT NULL,
		crypto_available NUMERIC NOT NULL,
		earnings_total NUMERIC NOT NULL
	)`, w.table("evaluations"))); err != nil {
		return err
	}
	if err := w.exec(ctx, "CREATE EXTENSION IF NOT EXISTS timescaledb"); err != nil {
		if w.log != nil {
			w.log.Warn("timescale extension ensure failed", zap.Error(err))
		}
		return nil
	}
	if err := w.exec(ctx, fmt.Sprintf("SELECT create_hypertable('%s', 'ts', if_not_exists => TRUE)", w.table("evaluations"))); err != nil && w.log != nil {
		w.log.Warn("timescale evaluations hypertable create failed", zap.Error(err))
	}
	return nil
}

func (w *Writer) writeEvaluation(ctx context.Context, snap EvaluationSnapshot) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, product, state, price, anchor, dip, upward_trend, profit, stop_loss,
		trading_available, crypto_available, earnings_total
	) VALUES (
		$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
	)`, w.table("evaluations"))
	if _, err := w.db.ExecContext(ctx, query,
		snap.Time,
		snap.Product,
		snap.State,
		snap.Price,
		snap.Anchor,
		snap.Dip,
		snap.UpwardTrend,
		snap.Profit,
		snap.StopLoss,
		snap.TradingAvailable,
		snap.CryptoAvailable,
		snap.EarningsTotal,
	); err != nil && w.log != nil {
		w.log.Warn("timescale evaluation insert failed", zap.Error(err))
	}
}

func (w *Writer) exec(ctx context.Context, query string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *Writer) table(name string) string {
	if w.schema == "" || w.schema == "public" {
		return name
	}
	return w.schema + "." + name
}
