package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"MarketSim/internal/auth"
	"MarketSim/internal/config"
	"MarketSim/pkg/kit"
)

func main() {
	subject := flag.String("sub", "operator", "token subject")
	role := flag.String("role", auth.RoleOperator, "token role")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	log := kit.NewLogger("market-token", "development")
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	tok, err := auth.NewTokenMaker(cfg.Auth.JWTSecret).New(*subject, *role, *ttl)
	if err != nil {
		log.Fatal("sign token", zap.Error(err))
	}
	fmt.Fprintln(os.Stdout, tok)
}
