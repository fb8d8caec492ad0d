package backfill

import (
	"fmt"
	"time"

	"github.com/poiesic/embedfill/core"
)

// DefaultBatchSize is the number of records fetched per iteration.
const DefaultBatchSize = 50

// Config holds configuration for the drain loop.
type Config struct {
	// BatchSize is the maximum number of records fetched, embedded and
	// written per iteration. Values <= 0 fall back to DefaultBatchSize.
	BatchSize int

	// Attempts is the number of tries for the embedding call of one
	// iteration. 1 means a provider failure ends the run immediately.
	Attempts int

	// RetryDelay is the base delay for exponential backoff between attempts.
	RetryDelay time.Duration

	// Normalize L2-normalizes vectors before they are written.
	Normalize bool

	// Dimension is the expected vector length. 0 accepts any non-zero
	// length as long as it is uniform within a batch.
	Dimension int

	// MaxBatchesPerSecond throttles fetches. 0 means unlimited.
	MaxBatchesPerSecond float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:  DefaultBatchSize,
		Attempts:   1,
		RetryDelay: 1 * time.Second,
	}
}

// Validate fills unset fields with defaults and rejects values that cannot
// be defaulted.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Attempts <= 0 {
		c.Attempts = 1
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 1 * time.Second
	}
	if c.Dimension < 0 {
		return fmt.Errorf("%w: backfill config: Dimension must not be negative", core.ErrConfiguration)
	}
	if c.MaxBatchesPerSecond < 0 {
		return fmt.Errorf("%w: backfill config: MaxBatchesPerSecond must not be negative", core.ErrConfiguration)
	}
	return nil
}
