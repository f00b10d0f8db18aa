// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"github.com/VincentYu328/luckystar-sub000/inventory"
)

// Prefix is prepended to every variable name, e.g. TAILOR_DB_PATH.
const Prefix = "TAILOR"

type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	DBPath   string `envconfig:"DB_PATH" default:"tailorshop.db"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`

	// DefaultMode applies only while the persisted inventory_mode flag has
	// never been written. The flag itself is state, not configuration.
	DefaultMode        string        `envconfig:"DEFAULT_MODE" default:"prod"`
	AllowNegativeStock bool          `envconfig:"ALLOW_NEGATIVE_STOCK" default:"true"`
	StockAuditInterval time.Duration `envconfig:"STOCK_AUDIT_INTERVAL" default:"15m"`

	OrderNumberAttempts int `envconfig:"ORDER_NUMBER_ATTEMPTS" default:"5"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,http://localhost:8080"`
}

// Load reads envFile (when it exists) and then the environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if _, err := inventory.ParseMode(c.DefaultMode); err != nil {
		return fmt.Errorf("%s_DEFAULT_MODE: %w", Prefix, err)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%s_LOG_LEVEL: %w", Prefix, err)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("%s_LOG_FORMAT: must be console or json, got %q", Prefix, c.LogFormat)
	}
	if c.OrderNumberAttempts < 1 {
		return fmt.Errorf("%s_ORDER_NUMBER_ATTEMPTS: must be at least 1", Prefix)
	}
	if c.StockAuditInterval < 0 {
		return fmt.Errorf("%s_STOCK_AUDIT_INTERVAL: must not be negative", Prefix)
	}
	return nil
}

// Mode is DefaultMode parsed. Validate has already checked it.
func (c *Config) Mode() inventory.Mode {
	return inventory.Mode(c.DefaultMode)
}
