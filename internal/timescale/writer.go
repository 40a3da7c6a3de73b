package timescale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"pool-tick-bot/internal/config"
)

// PriceSample is one per-block observation. Only telemetry lands here: raw
// and smoothed prices, never executed trades.
type PriceSample struct {
	Time     time.Time
	Block    uint64
	Price    float64
	Smoothed float64
	Decided  string
}

type Writer struct {
	db      *sql.DB
	log     *zap.Logger
	schema  string
	timeout time.Duration
	samples chan PriceSample
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
	timeout := cfg.FlushTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	writer := &Writer{
		db:      db,
		log:     log,
		schema:  schema,
		timeout: timeout,
		samples: make(chan PriceSample, queueSize),
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

// Close drains whatever is still queued, bounded by the flush timeout per
// sample, before releasing the connection pool.
func (w *Writer) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	w.drain()
	return w.db.Close()
}

func (w *Writer) drain() {
	deadline := time.Now().Add(w.timeout)
	for {
		select {
		case sample := <-w.samples:
			if time.Now().After(deadline) {
				w.dropped.Add(1)
				continue
			}
			w.writeSample(context.Background(), sample)
		default:
			if n := w.dropped.Load(); n > 0 && w.log != nil {
				w.log.Warn("timescale samples dropped", zap.Uint64("count", n))
			}
			return
		}
	}
}

// Enqueue never blocks the decision loop; samples are dropped when the queue
// is full.
func (w *Writer) Enqueue(sample PriceSample) {
	if w == nil {
		return
	}
	select {
	case w.samples <- sample:
		return
	default:
		if w.dropped.Add(1) == 1 && w.log != nil {
			w.log.Warn("timescale sample queue full")
		}
	}
}

func (w *Writer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sample := <-w.samples:
			w.writeSample(ctx, sample)
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
		block BIGINT NOT NULL,
		price DOUBLE PRECISION NOT NULL,
		smoothed DOUBLE PRECISION NOT NULL,
		decided TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (ts, block)
	)`, w.table("price_samples"))); err != nil {
		return err
	}
	if err := w.exec(ctx, "CREATE EXTENSION IF NOT EXISTS timescaledb"); err != nil {
		if w.log != nil {
			w.log.Warn("timescale extension ensure failed", zap.Error(err))
		}
		return nil
	}
	if err := w.exec(ctx, fmt.Sprintf("SELECT create_hypertable('%s', 'ts', if_not_exists => TRUE)", w.table("price_samples"))); err != nil && w.log != nil {
		w.log.Warn("timescale price_samples hypertable create failed", zap.Error(err))
	}
	return nil
}

func (w *Writer) writeSample(ctx context.Context, sample PriceSample) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, block, price, smoothed, decided
	) VALUES (
		$1,$2,$3,$4,$5
	)
	ON CONFLICT (ts, block) DO UPDATE SET
		price = EXCLUDED.price,
		smoothed = EXCLUDED.smoothed,
		decided = EXCLUDED.decided`, w.table("price_samples"))
	if _, err := w.db.ExecContext(ctx, query,
		sample.Time,
		int64(sample.Block),
		sample.Price,
		sample.Smoothed,
		sample.Decided,
	); err != nil && w.log != nil {
		w.log.Warn("timescale sample insert failed", zap.Error(err))
	}
}

func (w *Writer) exec(ctx context.Context, query string) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *Writer) table(name string) string {
	return w.schema + "." + name
}
