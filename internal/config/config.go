package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "MIGRATEGEN_"

// Config holds the settings of a generation run
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	Schema      string `env:"SCHEMA"`

	Tables          []string `env:"TABLES" envSeparator:","`
	Ignore          []string `env:"IGNORE" envSeparator:","`
	MigrationsTable string   `env:"MIGRATIONS_TABLE" envDefault:"migrations"`

	Path         string `env:"PATH" envDefault:"database/migrations"`
	TemplatePath string `env:"TEMPLATE_PATH"`
	Dialect      string `env:"DIALECT"`

	Timeout     time.Duration `env:"TIMEOUT" envDefault:"2m"`
	Concurrency int           `env:"CONCURRENCY" envDefault:"4"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file from envFile, then the environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the environment parser cannot
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	switch c.Dialect {
	case "", "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported dialect: %s", c.Dialect)
	}
	return nil
}
