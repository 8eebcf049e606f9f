// Package config loads runtime configuration from the environment, with an
// optional .env file for local runs.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Ticker          string `envconfig:"TICKER" default:"SPY"`
	MarketTimezone  string `envconfig:"MARKET_TIMEZONE" default:"America/New_York"`
	PolygonAPIKey   string `envconfig:"POLYGON_API_KEY"`
	DataDir         string `envconfig:"DATA_DIR" default:"data"`
	RunAt           string `envconfig:"RUN_AT" default:"09:31"`
	HistoryDays     int    `envconfig:"HISTORY_DAYS" default:"30"`
	MinExpirationOI int64  `envconfig:"MIN_EXPIRATION_OI" default:"1000"`
	DemoSeed        int64  `envconfig:"DEMO_SEED" default:"0"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
	LogDir          string `envconfig:"LOG_DIR" default:"logs"`
}

// Load reads the environment into a validated Config.
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("Load: failed to process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Ticker == "" {
		return fmt.Errorf("Validate: TICKER must not be empty")
	}
	if _, err := time.Parse("15:04", c.RunAt); err != nil {
		return fmt.Errorf("Validate: RUN_AT must be HH:MM, got %q", c.RunAt)
	}
	if c.HistoryDays <= 0 {
		return fmt.Errorf("Validate: HISTORY_DAYS must be positive, got %d", c.HistoryDays)
	}
	if c.MinExpirationOI < 0 {
		return fmt.Errorf("Validate: MIN_EXPIRATION_OI must not be negative, got %d", c.MinExpirationOI)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured market timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.MarketTimezone)
	if err != nil {
		return nil, fmt.Errorf("Location: invalid MARKET_TIMEZONE %q: %w", c.MarketTimezone, err)
	}
	return loc, nil
}

// DemoMode reports whether runs will use synthetic data instead of the
// Polygon API.
func (c *Config) DemoMode() bool {
	return c.PolygonAPIKey == ""
}
