// Package config reads process settings from the environment, optionally
// primed from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string
	LogLevel    string
	LogFile     string

	// DatabaseURL selects the PostgreSQL store; empty keeps everything in memory.
	DatabaseURL string

	// KafkaBrokers enables lifecycle forwarding when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// OTLPEndpoint enables trace export when non-empty.
	OTLPEndpoint string
	OTLPInsecure bool

	PaymentSuccessRate float64
	// PaymentSeed of zero seeds the simulator from the clock.
	PaymentSeed int64

	CatalogSeedFile string
	ShutdownTimeout time.Duration
}

// Load reads .env (when present) and then the environment. Variables already
// set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary variable source.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := &Config{
		ServiceName:     get("SERVICE_NAME", "minishop-fulfillment"),
		Env:             get("ENV", "dev"),
		HTTPAddr:        get("HTTP_ADDR", ":8080"),
		LogLevel:        strings.ToLower(get("LOG_LEVEL", "info")),
		LogFile:         get("LOG_FILE", ""),
		DatabaseURL:     get("DATABASE_URL", ""),
		KafkaBrokers:    splitCSV(get("KAFKA_BROKERS", "")),
		KafkaTopic:      get("KAFKA_TOPIC", "order.lifecycle"),
		OTLPEndpoint:    get("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		CatalogSeedFile: get("CATALOG_SEED_FILE", ""),
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("config: LOG_LEVEL %q: want debug, info, warn or error", cfg.LogLevel)
	}

	rate, err := strconv.ParseFloat(get("PAYMENT_SUCCESS_RATE", "0.8"), 64)
	if err != nil {
		return nil, fmt.Errorf("config: PAYMENT_SUCCESS_RATE: %w", err)
	}
	if !(rate >= 0 && rate <= 1) {
		return nil, fmt.Errorf("config: PAYMENT_SUCCESS_RATE %v outside [0,1]", rate)
	}
	cfg.PaymentSuccessRate = rate

	if cfg.PaymentSeed, err = strconv.ParseInt(get("PAYMENT_SEED", "0"), 10, 64); err != nil {
		return nil, fmt.Errorf("config: PAYMENT_SEED: %w", err)
	}

	if cfg.OTLPInsecure, err = strconv.ParseBool(get("OTEL_EXPORTER_OTLP_INSECURE", "true")); err != nil {
		return nil, fmt.Errorf("config: OTEL_EXPORTER_OTLP_INSECURE: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(get("SHUTDOWN_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("config: SHUTDOWN_TIMEOUT: %w", err)
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, fmt.Errorf("config: SHUTDOWN_TIMEOUT must be positive")
	}

	return cfg, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
