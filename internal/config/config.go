package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Env     string
	NoColor bool

	Server  ServerConfig
	Seed    SeedConfig
	Auth    AuthConfig
	Metrics MetricsConfig
	Kafka   KafkaConfig
	Observ  ObservabilityConfig
}

type ServerConfig struct {
	Port                string
	PurchaseLimitPerMin int
}

// SeedConfig selects where the catalog is seeded from. The database wins
// over the file; with neither set the built-in reference data is used.
type SeedConfig struct {
	File        string
	DatabaseURL string
	Migrate     bool
}

type AuthConfig struct {
	JWTSecret string
}

type MetricsConfig struct {
	Enabled bool
	Token   string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type ObservabilityConfig struct {
	JaegerEndpoint string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	limit, err := parseIntEnv("PURCHASE_LIMIT_PER_MIN", 60)
	if err != nil {
		return nil, err
	}

	metricsEnabled, err := parseBoolEnv("METRICS_ENABLED", true)
	if err != nil {
		return nil, err
	}

	seedMigrate, err := parseBoolEnv("SEED_MIGRATE", false)
	if err != nil {
		return nil, err
	}

	noColor := os.Getenv("NO_COLOR") != ""

	return &Config{
		Env:     getEnv("ENV", "development"),
		NoColor: noColor,
		Server: ServerConfig{
			Port:                getEnv("PORT", "8080"),
			PurchaseLimitPerMin: limit,
		},
		Seed: SeedConfig{
			File:        getEnv("SEED_FILE", ""),
			DatabaseURL: getEnv("SEED_DATABASE_URL", ""),
			Migrate:     seedMigrate,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Metrics: MetricsConfig{
			Enabled: metricsEnabled,
			Token:   getEnv("METRICS_TOKEN", ""),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "market-purchases"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),
		},
	}, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseIntEnv(key string, defaultVal int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseBoolEnv(key string, defaultVal bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
