package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pool-tick-bot/internal/app"
	"pool-tick-bot/internal/config"
	"pool-tick-bot/internal/logging"
	"pool-tick-bot/internal/metrics"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	log := logging.New(cfg.Log)
	log.Info("config loaded", zap.String("path", *configPath))

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		prom := metrics.NewPrometheus()
		m = prom.Metrics
		go func() {
			log.Info("metrics listening", zap.String("addr", cfg.Metrics.Listen))
			if err := http.ListenAndServe(cfg.Metrics.Listen, prom.Handler()); err != nil {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	application, err := app.New(cfg, log, m)
	if err != nil {
		log.Error("failed to initialize app", zap.Error(err))
		os.Exit(1)
	}
	log.Info("app initialized",
		zap.String("pool", cfg.Pool.Address),
		zap.Bool("dry_run", cfg.Executor.DryRun),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil && err != context.Canceled {
		log.Error("app terminated", zap.Error(err))
		os.Exit(1)
	}
}
