// Package config defines tendermatch configuration and its loading.
//
// Values are layered, lowest precedence first: built-in defaults, an
// optional YAML file, then TENDERMATCH_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/poiesic/tendermatch/ai"
	"github.com/poiesic/tendermatch/core"
)

// Backend names.
const (
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// Backend selects the store: badger or postgres.
	Backend string `koanf:"backend" validate:"oneof=badger postgres"`

	// DBPath is the badger data directory.
	DBPath string `koanf:"db_path" validate:"required_if=Backend badger"`

	// DatabaseURL is the postgres connection string.
	DatabaseURL string `koanf:"database_url" validate:"required_if=Backend postgres"`

	// BatchSize is how many score rows are buffered before a bulk write.
	BatchSize int `koanf:"batch_size" validate:"gt=0"`

	// TopK is the number of neighbours fetched per saved tender.
	TopK int `koanf:"top_k" validate:"gt=0"`

	// ScoreCap bounds scores raised by rescoring.
	ScoreCap float64 `koanf:"score_cap" validate:"gt=0"`

	// DefaultMidpoint applies to companies without their own.
	DefaultMidpoint float64 `koanf:"default_midpoint" validate:"gt=0"`

	// KeywordPolicy decides what a keyword search failure does:
	// skip_company or no_matches.
	KeywordPolicy string `koanf:"keyword_policy" validate:"oneof=skip_company no_matches"`

	// EmbeddingDimensions is the vector length stored and indexed.
	EmbeddingDimensions int `koanf:"embedding_dimensions" validate:"gt=0"`

	Embedding Embedding `koanf:"embedding"`

	// MetricsAddr serves /metrics when set, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr" validate:"omitempty,hostname_port"`
}

// Embedding configures the embedding service and the backfill pool.
type Embedding struct {
	Host       string        `koanf:"host" validate:"required,url"`
	Model      string        `koanf:"model" validate:"required"`
	Token      string        `koanf:"token"`
	BatchSize  int           `koanf:"batch_size" validate:"gt=0"`
	Workers    int           `koanf:"workers" validate:"gt=0"`
	MaxRetries int           `koanf:"max_retries" validate:"gt=0"`
	RetryDelay time.Duration `koanf:"retry_delay" validate:"gte=0"`
}

// New returns a Config populated with defaults.
func New() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		LogLevel:            "info",
		Backend:             BackendBadger,
		DBPath:              "./tendermatch-data",
		BatchSize:           1000,
		TopK:                10,
		ScoreCap:            100,
		DefaultMidpoint:     core.DefaultMidpoint,
		KeywordPolicy:       "skip_company",
		EmbeddingDimensions: 1536,
		Embedding: Embedding{
			Host:       aiDefaults.Host,
			Model:      aiDefaults.Model,
			BatchSize:  100,
			Workers:    4,
			MaxRetries: 3,
			RetryDelay: time.Second,
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// SlogLevel converts LogLevel to a slog level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return level, nil
}

// AI returns the embedding service settings.
func (c *Config) AI() *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.Embedding.Host),
		ai.WithModel(c.Embedding.Model),
		ai.WithToken(c.Embedding.Token),
	)
}
