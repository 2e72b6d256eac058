// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Broker credentials
	KISAppKey    string
	KISAppSecret string
	KISAccountNo string // "12345678-01"
	KISBaseURL   string

	// Base directory for the sqlite stores and reports; always absolute
	DataDir  string
	LogLevel string

	Strategy StrategyConfig
}

// StrategyConfig holds the tunable strategy parameters.
type StrategyConfig struct {
	TopMomentumCount int
	BottomFIPCount   int
	BufferRatio      float64
	MaxRetries       int
	RetryDelay       time.Duration
	OrderDelay       time.Duration
	SettleWait       time.Duration
}

// Load reads configuration from the environment, with .env support.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("TRADER_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		KISAppKey:    getEnv("KIS_APP_KEY", ""),
		KISAppSecret: getEnv("KIS_APP_SECRET", ""),
		KISAccountNo: getEnv("KIS_ACCOUNT_NO", ""),
		KISBaseURL:   getEnv("KIS_BASE_URL", "https://openapi.koreainvestment.com:9443"),
		DataDir:      absDataDir,
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Strategy: StrategyConfig{
			TopMomentumCount: getEnvAsInt("TOP_MOMENTUM_COUNT", 100),
			BottomFIPCount:   getEnvAsInt("BOTTOM_FIP_COUNT", 10),
			BufferRatio:      getEnvAsFloat("BUFFER_RATIO", 0.99),
			MaxRetries:       getEnvAsInt("MAX_RETRIES", 3),
			RetryDelay:       getEnvAsDuration("RETRY_DELAY", time.Second),
			OrderDelay:       getEnvAsDuration("ORDER_DELAY", 500*time.Millisecond),
			SettleWait:       getEnvAsDuration("SETTLE_WAIT", 60*time.Second),
		},
	}

	return cfg, nil
}

// ValidateBroker checks that live trading credentials are present.
func (c *Config) ValidateBroker() error {
	if c.KISAppKey == "" || c.KISAppSecret == "" {
		return fmt.Errorf("KIS_APP_KEY and KIS_APP_SECRET are required")
	}
	if c.KISAccountNo == "" {
		return fmt.Errorf("KIS_ACCOUNT_NO is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
