// Package config loads process configuration from the environment.
//
// Every variable carries the EMBEDFILL_ prefix. A .env file, when present,
// is loaded first; variables already set in the environment win over it.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/poiesic/embedfill/ai"
	"github.com/poiesic/embedfill/backfill"
	"github.com/poiesic/embedfill/core"
)

// Prefix is prepended to every environment variable name.
const Prefix = "EMBEDFILL"

// Default values. Struct tag defaults must be literals; these are kept in
// sync with them by tests.
const (
	DefaultStoreTable = "courses"
	DefaultProvider   = "hugot"
	DefaultModel      = "all-MiniLM-L6-v2"
	DefaultDimension  = 384
	DefaultBatchSize  = backfill.DefaultBatchSize
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
)

// Config holds all environment-based configuration.
type Config struct {
	// StoreURL locates the record store.
	// Env: EMBEDFILL_STORE_URL
	// postgres://, postgresql://, sqlite:///path or badger:///path
	StoreURL string `envconfig:"STORE_URL"`

	// StoreKey is the store credential.
	// Env: EMBEDFILL_STORE_KEY
	StoreKey string `envconfig:"STORE_KEY"`

	// StoreAnonKey is used when StoreKey is unset.
	// Env: EMBEDFILL_STORE_ANON_KEY
	StoreAnonKey string `envconfig:"STORE_ANON_KEY"`

	// StoreTable is the SQL table holding the records.
	// Env: EMBEDFILL_STORE_TABLE (default: courses)
	StoreTable string `envconfig:"STORE_TABLE" default:"courses"`

	// Embedding configures the embedding provider.
	Embedding EmbeddingEnv `envconfig:"EMBEDDING"`

	// BatchSize is the number of records per iteration.
	// Env: EMBEDFILL_BATCH_SIZE (default: 50)
	BatchSize int `envconfig:"BATCH_SIZE" default:"50"`

	// Attempts is the number of tries per embedding call.
	// Env: EMBEDFILL_ATTEMPTS (default: 1)
	Attempts int `envconfig:"ATTEMPTS" default:"1"`

	// RetryDelay is the base backoff delay between attempts.
	// Env: EMBEDFILL_RETRY_DELAY (default: 1s)
	RetryDelay time.Duration `envconfig:"RETRY_DELAY" default:"1s"`

	// Normalize L2-normalizes vectors before writing.
	// Env: EMBEDFILL_NORMALIZE (default: false)
	Normalize bool `envconfig:"NORMALIZE" default:"false"`

	// MaxBatchesPerSecond throttles the loop; 0 is unlimited.
	// Env: EMBEDFILL_MAX_BATCHES_PER_SECOND (default: 0)
	MaxBatchesPerSecond float64 `envconfig:"MAX_BATCHES_PER_SECOND" default:"0"`

	// LogLevel is one of debug, info, warn, error.
	// Env: EMBEDFILL_LOG_LEVEL (default: info)
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// LogFormat is text or json.
	// Env: EMBEDFILL_LOG_FORMAT (default: text)
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// PushgatewayURL receives run metrics when set.
	// Env: EMBEDFILL_PUSHGATEWAY_URL
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL"`
}

// EmbeddingEnv holds environment configuration for the embedding provider.
type EmbeddingEnv struct {
	// Provider is hugot, openai or mock.
	// Env: EMBEDFILL_EMBEDDING_PROVIDER (default: hugot)
	Provider string `envconfig:"PROVIDER" default:"hugot"`

	// BaseURL is the OpenAI-compatible API base.
	// Env: EMBEDFILL_EMBEDDING_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the embedding model name.
	// Env: EMBEDFILL_EMBEDDING_MODEL (default: all-MiniLM-L6-v2)
	Model string `envconfig:"MODEL" default:"all-MiniLM-L6-v2"`

	// APIKey authenticates against the API.
	// Env: EMBEDFILL_EMBEDDING_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// ModelDir is the local model directory for hugot.
	// Env: EMBEDFILL_EMBEDDING_MODEL_DIR
	ModelDir string `envconfig:"MODEL_DIR"`

	// Dimension is the expected vector length; 0 disables the check.
	// Env: EMBEDFILL_EMBEDDING_DIMENSION (default: 384)
	Dimension int `envconfig:"DIMENSION" default:"384"`
}

// LoadDotEnv loads environment variables from a .env file.
// If path is empty, it loads from ".env" in the current directory.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// LoadFromEnv parses the EMBEDFILL_ environment variables.
func LoadFromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", core.ErrConfiguration, err)
	}
	return cfg, nil
}

// Load reads the optional .env file at envPath and then the environment.
// The result is not validated.
func Load(envPath string) (Config, error) {
	if err := LoadDotEnv(envPath); err != nil {
		return Config{}, fmt.Errorf("%w: load %s: %w", core.ErrConfiguration, envPath, err)
	}
	return LoadFromEnv()
}

// Credential returns StoreKey, falling back to StoreAnonKey.
func (c Config) Credential() string {
	if c.StoreKey != "" {
		return c.StoreKey
	}
	return c.StoreAnonKey
}

// ValidateStore checks the settings needed to open the record store.
func (c Config) ValidateStore() error {
	if c.StoreURL == "" {
		return fmt.Errorf("%w: %s_STORE_URL is required", core.ErrConfiguration, Prefix)
	}
	if c.Credential() == "" {
		return fmt.Errorf("%w: %s_STORE_KEY or %s_STORE_ANON_KEY is required", core.ErrConfiguration, Prefix, Prefix)
	}
	return nil
}

// Validate reports missing or malformed settings as core.ErrConfiguration.
func (c Config) Validate() error {
	if err := c.ValidateStore(); err != nil {
		return err
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", core.ErrConfiguration, c.LogFormat)
	}
	if err := c.AIConfig().Validate(); err != nil {
		return err
	}
	return c.BackfillConfig().Validate()
}

// AIConfig returns the embedding provider configuration.
func (c Config) AIConfig() *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithProvider(ai.Provider(c.Embedding.Provider)),
		ai.WithToken(c.Embedding.APIKey),
		ai.WithModelDir(c.Embedding.ModelDir),
		ai.WithDimension(c.Embedding.Dimension),
	}
	if c.Embedding.BaseURL != "" {
		opts = append(opts, ai.WithHost(c.Embedding.BaseURL))
	}
	if c.Embedding.Model != "" {
		opts = append(opts, ai.WithModel(c.Embedding.Model))
	}
	return ai.NewConfig(opts...)
}

// BackfillConfig returns the drain loop configuration.
func (c Config) BackfillConfig() *backfill.Config {
	return &backfill.Config{
		BatchSize:           c.BatchSize,
		Attempts:            c.Attempts,
		RetryDelay:          c.RetryDelay,
		Normalize:           c.Normalize,
		Dimension:           c.Embedding.Dimension,
		MaxBatchesPerSecond: c.MaxBatchesPerSecond,
	}
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", core.ErrConfiguration, level)
	}
}
