package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"MarketSim/internal/api"
	"MarketSim/internal/auth"
	"MarketSim/internal/catalog"
	"MarketSim/internal/config"
	"MarketSim/internal/ledger"
	"MarketSim/pkg/kit"
)

//	@title						MarketSim API
//	@version					1.0
//	@description				Users, products and purchases of the market simulator.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {
	service := "marketd"

	cfg, err := config.Load()
	if err != nil {
		kit.NewLogger(service, "development").Fatal("config", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.Env)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Observ.JaegerEndpoint != "" {
		tp, err := kit.InitTracer(ctx, service, cfg.Observ.JaegerEndpoint)
		if err != nil {
			log.Fatal("init tracer", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Warn("tracer shutdown", zap.Error(err))
			}
		}()
	}

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
	log.Info("catalog loaded",
		zap.Int("users", len(seed.Users)),
		zap.Int("products", len(seed.Products)),
	)

	var events ledger.Publisher = ledger.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		events = ledger.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Info("kafka publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	defer func() { _ = events.Close() }()

	var tokens *auth.TokenMaker
	if cfg.Auth.JWTSecret != "" {
		tokens = auth.NewTokenMaker(cfg.Auth.JWTSecret)
	} else {
		log.Warn("JWT_SECRET not set, purchases are unauthenticated")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	h := api.NewHandler(api.HTTPDeps{
		Log:                 log,
		Service:             service,
		Registry:            reg,
		Ledger:              ledger.New(c),
		Events:              events,
		Tokens:              tokens,
		PurchaseLimitPerMin: cfg.Server.PurchaseLimitPerMin,
		MetricsEnabled:      cfg.Metrics.Enabled,
		MetricsToken:        cfg.Metrics.Token,
	})

	if err := kit.RunHTTPServer(ctx, ":"+cfg.Server.Port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
