// Package config reads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/orders"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/pricing"
	"github.com/shopspring/decimal"
)

const (
	OrderStoreMongo    = "mongo"
	OrderStorePostgres = "postgres"
)

type Config struct {
	HTTPPort           string
	LogLevel           string
	MongoURI           string
	MongoDBName        string
	RedisAddr          string
	RedisPassword      string
	KafkaBrokers       []string
	OrderStore         string
	Postgres           orders.Credentials
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	Pricing            pricing.Policy
	CheckoutRateLimit  float64
	CheckoutBurst      int
}

func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:        getEnv("MONGO_DB_NAME", "agrohub"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:       splitList(getEnv("KAFKA_BROKERS", "")),
		OrderStore:         strings.ToLower(getEnv("ORDER_STORE", OrderStoreMongo)),
		MaxRequestBodySize: 1 << 20, // 1MB
		Postgres: orders.Credentials{
			Host:              getEnv("DB_HOST", "localhost"),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", "postgres"),
			DBName:            getEnv("DB_NAME", "agrohub"),
			MigrationsDirPath: getEnv("MIGRATIONS_PATH", "internal/orders/migrations"),
		},
	}

	var err error
	if cfg.Postgres.Port, err = strconv.Atoi(getEnv("DB_PORT", "5432")); err != nil {
		errs = append(errs, fmt.Errorf("DB_PORT: %w", err))
	}
	if cfg.RequestTimeout, err = time.ParseDuration(getEnv("REQUEST_TIMEOUT", "30s")); err != nil {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT: %w", err))
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s")); err != nil {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err))
	}
	if cfg.CheckoutRateLimit, err = strconv.ParseFloat(getEnv("CHECKOUT_RATE_LIMIT", "1"), 64); err != nil {
		errs = append(errs, fmt.Errorf("CHECKOUT_RATE_LIMIT: %w", err))
	}
	if cfg.CheckoutBurst, err = strconv.Atoi(getEnv("CHECKOUT_BURST", "3")); err != nil {
		errs = append(errs, fmt.Errorf("CHECKOUT_BURST: %w", err))
	}

	cfg.Pricing = pricing.DefaultPolicy()
	if cfg.Pricing.FlatShippingFee, err = getDecimal("FLAT_SHIPPING_FEE", cfg.Pricing.FlatShippingFee); err != nil {
		errs = append(errs, err)
	}
	if cfg.Pricing.FreeShippingThreshold, err = getDecimal("FREE_SHIPPING_THRESHOLD", cfg.Pricing.FreeShippingThreshold); err != nil {
		errs = append(errs, err)
	}
	if cfg.Pricing.TaxRate, err = getDecimal("TAX_RATE", cfg.Pricing.TaxRate); err != nil {
		errs = append(errs, err)
	}
	if err := cfg.Pricing.Validate(); err != nil {
		errs = append(errs, err)
	}

	if cfg.OrderStore != OrderStoreMongo && cfg.OrderStore != OrderStorePostgres {
		errs = append(errs, fmt.Errorf("ORDER_STORE: unknown store %q", cfg.OrderStore))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
