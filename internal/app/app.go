package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"pool-tick-bot/internal/alerts"
	"pool-tick-bot/internal/chain"
	"pool-tick-bot/internal/chain/heads"
	"pool-tick-bot/internal/config"
	"pool-tick-bot/internal/exec"
	"pool-tick-bot/internal/metrics"
	"pool-tick-bot/internal/state"
	"pool-tick-bot/internal/state/sqlite"
	"pool-tick-bot/internal/strategy"
	"pool-tick-bot/internal/timescale"
)

const privateKeyEnv = "POOL_BOT_PRIVATE_KEY"

// PriceSource supplies one price per evaluation cycle.
type PriceSource interface {
	Price(ctx context.Context) (float64, error)
}

// BlockSource reports the latest block number, used when polling instead of
// a websocket subscription.
type BlockSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

type executor interface {
	Execute(ctx context.Context, req chain.SwapRequest) (string, error)
}

type notifier interface {
	SendTrade(ctx context.Context, alert alerts.TradeAlert) error
}

// smoothedTracker is implemented by strategies that keep smoothing memory;
// the driver uses it for the gauge and to persist/restore the average.
type smoothedTracker interface {
	Smoothed() (float64, bool)
	Seed(last float64)
}

type App struct {
	cfg      *config.Config
	log      *zap.Logger
	store    state.Store
	client   *chain.Client
	price    PriceSource
	blocks   BlockSource
	watcher  *heads.Watcher
	executor executor
	metrics  *metrics.Metrics
	alerts   notifier
	tsdb     *timescale.Writer
	strategy strategy.Strategy

	lastBlock uint64
}

func New(cfg *config.Config, log *zap.Logger, m *metrics.Metrics) (*App, error) {
	if m == nil {
		m = metrics.NewNoop()
	}
	built, err := strategy.Build(cfg.Strategy)
	if err != nil {
		return nil, fmt.Errorf("strategy: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.State.SQLitePath), 0o755); err != nil {
		return nil, err
	}
	store, err := sqlite.New(cfg.State.SQLitePath)
	if err != nil {
		return nil, err
	}
	client, err := chain.Dial(context.Background(), cfg.RPC.HTTPURL, cfg.RPC.Timeout, cfg.RPC.RequestsPerSec, cfg.RPC.Burst, log)
	if err != nil {
		return nil, err
	}
	pool, err := chain.NewPoolReader(client, cfg.Pool, log)
	if err != nil {
		return nil, err
	}
	var signer *chain.Signer
	if !cfg.Executor.DryRun {
		key := strings.TrimSpace(os.Getenv(privateKeyEnv))
		if key == "" {
			return nil, fmt.Errorf("%s is required for live execution", privateKeyEnv)
		}
		signer, err = chain.NewSigner(key, cfg.Executor.ChainID)
		if err != nil {
			return nil, err
		}
	}
	swapper, err := chain.NewSwapper(client, signer, cfg.Pool, cfg.Executor, log)
	if err != nil {
		return nil, err
	}
	tsdb, err := timescale.New(cfg.Timescale, log)
	if err != nil {
		return nil, err
	}
	var watcher *heads.Watcher
	if strings.TrimSpace(cfg.RPC.WSURL) != "" {
		watcher = heads.New(cfg.RPC.WSURL, cfg.RPC.ReconnectDelay, log)
	}
	return &App{
		cfg:      cfg,
		log:      log,
		store:    store,
		client:   client,
		price:    pool,
		blocks:   client,
		watcher:  watcher,
		executor: exec.New(swapper, store, log),
		metrics:  m,
		alerts:   alerts.NewTelegram(cfg.Telegram, log),
		tsdb:     tsdb,
		strategy: built,
	}, nil
}

// Run drives the strategy until ctx is canceled: one Decide call per new
// block, strictly sequential, on the single strategy instance built at
// startup.
func (a *App) Run(ctx context.Context) error {
	defer a.store.Close()
	if a.client != nil {
		defer a.client.Close()
	}
	if a.tsdb != nil {
		defer a.tsdb.Close()
	}
	a.restoreSnapshot(ctx)
	a.tsdb.Start(ctx)

	blocks := make(chan uint64, 1)
	if a.watcher != nil {
		go func() {
			if err := a.watcher.Run(ctx, func(number uint64) {
				select {
				case blocks <- number:
				default:
				}
			}); err != nil && ctx.Err() == nil {
				a.log.Error("heads watcher stopped", zap.Error(err))
			}
		}()
	} else {
		go a.pollBlocks(ctx, blocks)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case number := <-blocks:
			if a.lastBlock != 0 && number <= a.lastBlock {
				continue
			}
			if err := a.tick(ctx, number); err != nil {
				a.log.Warn("block evaluation failed", zap.Uint64("block", number), zap.Error(err))
			}
		}
	}
}

func (a *App) pollBlocks(ctx context.Context, blocks chan<- uint64) {
	ticker := time.NewTicker(a.cfg.RPC.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			number, err := a.blocks.BlockNumber(ctx)
			if err != nil {
				a.log.Warn("block number poll failed", zap.Error(err))
				continue
			}
			select {
			case blocks <- number:
			default:
			}
		}
	}
}

// tick evaluates exactly one block: observe the price, run the pipeline
// once, and route an intent to the executor if one came out.
func (a *App) tick(ctx context.Context, block uint64) error {
	price, err := a.price.Price(ctx)
	if err != nil {
		a.metrics.PriceErrors.Inc()
		return fmt.Errorf("price read: %w", err)
	}
	a.metrics.BlocksObserved.Inc()
	a.metrics.Price.Set(price)

	trade := a.strategy.Decide(strategy.TradeContext{PriceLossy: price})

	smoothed := price
	if tracker, ok := a.strategy.(smoothedTracker); ok {
		if last, seeded := tracker.Smoothed(); seeded {
			smoothed = last
			a.metrics.SmoothedPrice.Set(last)
		}
	}

	decided := ""
	if trade != nil {
		decided = string(trade.Side)
		if err := a.executeTrade(ctx, block, price, trade); err != nil {
			a.metrics.SwapsFailed.Inc()
			a.log.Warn("trade execution failed", zap.Uint64("block", block), zap.Error(err))
		}
	}

	a.tsdb.Enqueue(timescale.PriceSample{
		Time:     time.Now().UTC(),
		Block:    block,
		Price:    price,
		Smoothed: smoothed,
		Decided:  decided,
	})
	a.lastBlock = block
	a.saveSnapshot(ctx, block, price)
	return nil
}

func (a *App) executeTrade(ctx context.Context, block uint64, price float64, trade *strategy.Trade) error {
	ref, err := a.executor.Execute(ctx, chain.SwapRequest{
		Block:  block,
		Side:   trade.Side,
		Amount: trade.Amount,
	})
	if err != nil {
		return err
	}
	switch trade.Side {
	case strategy.SideBuy:
		a.metrics.TradesBuy.Inc()
	case strategy.SideSell:
		a.metrics.TradesSell.Inc()
	}
	a.log.Info("trade intent executed",
		zap.Uint64("block", block),
		zap.String("side", string(trade.Side)),
		zap.String("amount", trade.Amount.String()),
		zap.Float64("price", price),
		zap.String("ref", ref),
	)
	if a.alerts != nil {
		alert := alerts.TradeAlert{
			Block:  block,
			Side:   string(trade.Side),
			Amount: trade.Amount.String(),
			Price:  price,
			Ref:    ref,
		}
		if err := a.alerts.SendTrade(ctx, alert); err != nil {
			a.log.Warn("alert send failed", zap.Error(err))
		}
	}
	return nil
}

func (a *App) restoreSnapshot(ctx context.Context) {
	snapshot, ok, err := state.LoadRunSnapshot(ctx, a.store)
	if err != nil {
		a.log.Warn("run snapshot load failed", zap.Error(err))
		return
	}
	if !ok {
		return
	}
	a.lastBlock = snapshot.LastBlock
	if snapshot.HasSmoothed {
		if tracker, ok := a.strategy.(smoothedTracker); ok {
			tracker.Seed(snapshot.Smoothed)
			a.log.Info("restored smoothing memory",
				zap.Uint64("last_block", snapshot.LastBlock),
				zap.Float64("smoothed", snapshot.Smoothed),
			)
		}
	}
}

func (a *App) saveSnapshot(ctx context.Context, block uint64, price float64) {
	snapshot := state.RunSnapshot{
		LastBlock:   block,
		LastPrice:   price,
		UpdatedAtMS: time.Now().UnixMilli(),
	}
	if tracker, ok := a.strategy.(smoothedTracker); ok {
		if last, seeded := tracker.Smoothed(); seeded {
			snapshot.Smoothed = last
			snapshot.HasSmoothed = true
		}
	}
	if err := state.SaveRunSnapshot(ctx, a.store, snapshot); err != nil {
		a.log.Warn("run snapshot save failed", zap.Error(err))
	}
}
