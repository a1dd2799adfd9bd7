package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"MarketSim/internal/catalog"
	"MarketSim/internal/config"
	"MarketSim/internal/ledger"
	"MarketSim/internal/shell"
	"MarketSim/pkg/kit"
)

func main() {
	service := "market"

	cfg, err := config.Load()
	if err != nil {
		kit.NewLogger(service, "development").Fatal("config", zap.Error(err))
	}

	// The menu owns stdout; keep the log to warnings unless it is production JSON.
	log := kit.NewLogger(service, cfg.Env)
	if cfg.Env != "production" {
		log = kit.WithLevel(log, zapcore.WarnLevel)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seed, err := catalog.LoadSeed(ctx, catalog.SeedOptions{
		File:        cfg.Seed.File,
		DatabaseURL: cfg.Seed.DatabaseURL,
		Migrate:     cfg.Seed.Migrate,
	})
	if err != nil {
		log.Fatal("load seed", zap.Error(err))
	}
	c, err := catalog.New(seed)
	if err != nil {
		log.Fatal("build catalog", zap.Error(err))
	}

	sh := &shell.Shell{
		Ledger:  ledger.New(c),
		In:      os.Stdin,
		Out:     os.Stdout,
		NoColor: cfg.NoColor,
		Log:     log,
	}

	// Run blocks on stdin, which a signal cannot interrupt; return from main
	// instead of waiting for the next line.
	done := make(chan error, 1)
	go func() { done <- sh.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil && ctx.Err() == nil {
			log.Fatal("shell stopped", zap.Error(err))
		}
	case <-ctx.Done():
		stop()
		log.Info("interrupted", zap.Error(context.Cause(ctx)))
	}
}
