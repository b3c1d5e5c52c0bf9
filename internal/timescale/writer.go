package timescale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"flashpeg-keeper/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const writeTimeout = 3 * time.Second

// Observation is one evaluation cycle of a strategy.
type Observation struct {
	Time           time.Time
	Strategy       string
	State          string
	SpreadBps      int64
	Low            string
	High           string
	Profitable     bool
	FlashAmount    string
	ExpectedProfit string
}

// Execution is the final outcome of a submitted transaction. Amounts are
// decimal strings of base units and land in NUMERIC columns.
type Execution struct {
	Time           time.Time
	Strategy       string
	TxHash         string
	Status         string
	FlashAmount    string
	ExpectedProfit string
	GasUsed        uint64
	GasPriceWei    string
	Error          string
}

type Writer struct {
	db           *sql.DB
	log          *zap.Logger
	schema       string
	observations chan Observation
	executions   chan Execution
	started      atomic.Bool
	dropObs      atomic.Uint64
	dropExec     atomic.Uint64
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
	w := newWriter(db, log, schema, cfg.QueueSize)
	if err := w.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

func newWriter(db *sql.DB, log *zap.Logger, schema string, queueSize int) *Writer {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Writer{
		db:           db,
		log:          log,
		schema:       schema,
		observations: make(chan Observation, queueSize),
		executions:   make(chan Execution, queueSize),
	}
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

// EnqueueObservation never blocks; a full queue drops the row.
func (w *Writer) EnqueueObservation(obs Observation) {
	if w == nil {
		return
	}
	select {
	case w.observations <- obs:
	default:
		if w.dropObs.Add(1) == 1 && w.log != nil {
			w.log.Warn("timescale observation queue full")
		}
	}
}

func (w *Writer) EnqueueExecution(exec Execution) {
	if w == nil {
		return
	}
	select {
	case w.executions <- exec:
	default:
		if w.dropExec.Add(1) == 1 && w.log != nil {
			w.log.Warn("timescale execution queue full")
		}
	}
}

func (w *Writer) Dropped() (observations, executions uint64) {
	if w == nil {
		return 0, 0
	}
	return w.dropObs.Load(), w.dropExec.Load()
}

func (w *Writer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case obs := <-w.observations:
			w.writeObservation(ctx, obs)
		case exec := <-w.executions:
			w.writeExecution(ctx, exec)
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
		strategy TEXT NOT NULL,
		state TEXT NOT NULL,
		spread_bps BIGINT NOT NULL,
		low_venue TEXT NOT NULL,
		high_venue TEXT NOT NULL,
		profitable BOOLEAN NOT NULL,
		flash_amount NUMERIC NOT NULL DEFAULT 0,
		expected_profit NUMERIC NOT NULL DEFAULT 0
	)`, w.table("spread_observations"))); err != nil {
		return err
	}
	if err := w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		strategy TEXT NOT NULL,
		tx_hash TEXT NOT NULL,
		status TEXT NOT NULL,
		flash_amount NUMERIC NOT NULL DEFAULT 0,
		expected_profit NUMERIC NOT NULL DEFAULT 0,
		gas_used BIGINT NOT NULL DEFAULT 0,
		gas_price_wei NUMERIC NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	)`, w.table("executions"))); err != nil {
		return err
	}
	if err := w.exec(ctx, "CREATE EXTENSION IF NOT EXISTS timescaledb"); err != nil {
		if w.log != nil {
			w.log.Warn("timescale extension ensure failed", zap.Error(err))
		}
		return nil
	}
	for _, name := range []string{"spread_observations", "executions"} {
		if err := w.exec(ctx, fmt.Sprintf("SELECT create_hypertable('%s', 'ts', if_not_exists => TRUE)", w.table(name))); err != nil && w.log != nil {
			w.log.Warn("timescale hypertable create failed", zap.String("table", name), zap.Error(err))
		}
	}
	return nil
}

func (w *Writer) writeObservation(ctx context.Context, obs Observation) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, strategy, state, spread_bps, low_venue, high_venue, profitable, flash_amount, expected_profit
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`, w.table("spread_observations"))
	if _, err := w.db.ExecContext(ctx, query,
		obs.Time,
		obs.Strategy,
		obs.State,
		obs.SpreadBps,
		obs.Low,
		obs.High,
		obs.Profitable,
		numeric(obs.FlashAmount),
		numeric(obs.ExpectedProfit),
	); err != nil && w.log != nil {
		w.log.Warn("timescale observation insert failed", zap.Error(err))
	}
}

func (w *Writer) writeExecution(ctx context.Context, exec Execution) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, strategy, tx_hash, status, flash_amount, expected_profit, gas_used, gas_price_wei, error
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`, w.table("executions"))
	if _, err := w.db.ExecContext(ctx, query,
		exec.Time,
		exec.Strategy,
		exec.TxHash,
		exec.Status,
		numeric(exec.FlashAmount),
		numeric(exec.ExpectedProfit),
		int64(exec.GasUsed),
		numeric(exec.GasPriceWei),
		exec.Error,
	); err != nil && w.log != nil {
		w.log.Warn("timescale execution insert failed", zap.Error(err))
	}
}

func (w *Writer) exec(ctx context.Context, query string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *Writer) table(name string) string {
	return w.schema + "." + name
}

func numeric(value string) string {
	if strings.TrimSpace(value) == "" {
		return "0"
	}
	return value
}
