package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env  string
	Port string

	RedisURL  string
	RedisPass string
	RedisDB   int

	JWTSecret string

	// LedgerURL is the base URL of the external settlement ledger
	// service.
	LedgerURL     string
	LedgerTimeout time.Duration

	Countdown time.Duration
	Summary   time.Duration

	GrowthFactor float64
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:           getEnv("APP_ENV", "development"),
		Port:          getEnv("PORT", "8080"),
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPass:     getEnv("REDIS_PASSWORD", ""),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		LedgerURL:     getEnv("LEDGER_URL", "http://localhost:9090"),
		LedgerTimeout: getDuration("LEDGER_TIMEOUT", 10*time.Second),
		Countdown:     getDuration("ROUND_COUNTDOWN", 20*time.Second),
		Summary:       getDuration("ROUND_SUMMARY", 5*time.Second),
		GrowthFactor:  getFloat("GROWTH_FACTOR", 1.06),
	}

	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %v", err)
	}
	cfg.RedisDB = db

	if cfg.Env == "production" && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
