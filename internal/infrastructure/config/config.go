package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
type Config struct {
	// Ledger
	AmountPrecision int32 `env:"AMOUNT_PRECISION" envDefault:"4"`

	// Database (optional - leave empty to disable the postgres sink)
	DatabaseURL      string        `env:"DATABASE_URL"       envDefault:""`
	DatabaseMaxConns int           `env:"DATABASE_MAX_CONNS" envDefault:"4"`
	DatabaseMinConns int           `env:"DATABASE_MIN_CONNS" envDefault:"1"`
	DatabaseTimeout  time.Duration `env:"DATABASE_TIMEOUT"   envDefault:"30s"`

	// Redis (optional - leave empty to disable the redis sink)
	RedisURL    string        `env:"REDIS_URL"     envDefault:""`
	RedisPrefix string        `env:"REDIS_PREFIX"  envDefault:"account:"`
	RedisTTL    time.Duration `env:"REDIS_TTL"     envDefault:"0s"`

	// HTTP Server
	HTTPPort            string        `env:"HTTP_PORT"             envDefault:"8080"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"30s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"30s"`
	HTTPIdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT"     envDefault:"60s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Rate limiting per client IP (requests per second, 0 disables it)
	HTTPRateLimit float64 `env:"HTTP_RATE_LIMIT" envDefault:"0"`
	HTTPRateBurst int     `env:"HTTP_RATE_BURST" envDefault:"20"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// Metrics (optional - text exposition file written at the end of a batch run)
	MetricsFile string `env:"METRICS_FILE" envDefault:""`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	if c.AmountPrecision < 1 || c.AmountPrecision > 18 {
		return fmt.Errorf("AMOUNT_PRECISION must be between 1 and 18, got %d", c.AmountPrecision)
	}
	if c.HTTPRateLimit < 0 {
		return fmt.Errorf("HTTP_RATE_LIMIT must not be negative, got %v", c.HTTPRateLimit)
	}
	if c.HTTPRateLimit > 0 && c.HTTPRateBurst < 1 {
		return fmt.Errorf("HTTP_RATE_BURST must be at least 1 when rate limiting is enabled, got %d", c.HTTPRateBurst)
	}
	return nil
}
