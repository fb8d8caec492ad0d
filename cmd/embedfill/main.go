// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/embedfill"
	"github.com/poiesic/embedfill/backfill"
	"github.com/poiesic/embedfill/config"
	"github.com/poiesic/embedfill/core"
	"github.com/urfave/cli/v2"
)

// configKey is the App.Metadata key holding the loaded config.Config.
const configKey = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "embedfill: %s error: %v\n", backfill.Kind(err), err)
		os.Exit(exitCode(err))
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "embedfill",
		Usage: "Fill in missing embeddings for stored records",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Set logging format (text, json)",
				Value: "text",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file loaded before the environment",
				Value: ".env",
			},
		},
		Before: loadConfig,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Embed every record that has no embedding yet",
				Action: runCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "batch-size",
						Aliases: []string{"n"},
						Usage:   "Number of records to process in each batch",
						Value:   backfill.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "attempts",
						Usage: "Attempts per embedding call before the run stops",
						Value: 1,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "normalize",
						Usage: "L2-normalize vectors before writing",
					},
					&cli.Float64Flag{
						Name:  "max-batches-per-second",
						Usage: "Throttle the loop (0 is unlimited)",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: backfill.DefaultBatchSize,
					},
					&cli.BoolFlag{
						Name:    "quiet",
						Aliases: []string{"q"},
						Usage:   "Do not print the progress line",
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Print the number of records without an embedding",
				Action: statusCommand,
			},
			{
				Name:   "import",
				Usage:  "Insert records from a JSON Lines file of {id, title, description}",
				Action: importCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the JSON Lines file (- for stdin)",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Number of records inserted per transaction",
						Value: 500,
					},
				},
			},
		},
	}
}

// loadConfig reads the environment and applies it to the logging flags
// the command line left unset.
func loadConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return err
	}
	if !c.IsSet("log-level") && cfg.LogLevel != "" {
		if err := c.Set("log-level", cfg.LogLevel); err != nil {
			return err
		}
	}
	if !c.IsSet("log-format") && cfg.LogFormat != "" {
		if err := c.Set("log-format", cfg.LogFormat); err != nil {
			return err
		}
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg
	return setupLogger(c)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))
	level, err := config.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("%w: invalid log level %q: must be one of debug, info, warn, error", core.ErrConfiguration, levelStr)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(c.String("log-format")) {
	case "", "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("%w: invalid log format %q: must be text or json", core.ErrConfiguration, c.String("log-format"))
	}
	slog.SetDefault(slog.New(handler))

	return nil
}

// configFrom returns the configuration loaded by loadConfig.
func configFrom(c *cli.Context) config.Config {
	if cfg, ok := c.App.Metadata[configKey].(config.Config); ok {
		return cfg
	}
	return config.Config{}
}

func runCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := configFrom(c)
	if c.IsSet("batch-size") || cfg.BatchSize == 0 {
		cfg.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("attempts") || cfg.Attempts == 0 {
		cfg.Attempts = c.Int("attempts")
	}
	if c.IsSet("retry-delay") || cfg.RetryDelay == 0 {
		cfg.RetryDelay = c.Duration("retry-delay")
	}
	if c.IsSet("normalize") {
		cfg.Normalize = c.Bool("normalize")
	}
	if c.IsSet("max-batches-per-second") {
		cfg.MaxBatchesPerSecond = c.Float64("max-batches-per-second")
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("%w: batch-size must be greater than 0", core.ErrConfiguration)
	}
	if c.Int("report-interval") <= 0 {
		return fmt.Errorf("%w: report-interval must be greater than 0", core.ErrConfiguration)
	}

	var opts []embedfill.Option
	if !c.Bool("quiet") {
		opts = append(opts, embedfill.WithObserver(backfill.NewProgressTracker(os.Stderr, c.Int("report-interval"))))
	}

	job, err := embedfill.Open(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer job.Close()

	fmt.Fprintf(os.Stderr, "Store: %s\n", redact(cfg.StoreURL))
	fmt.Fprintf(os.Stderr, "Embedding provider: %s\n", cfg.AIConfig().Provider)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.Embedding.Model)
	fmt.Fprintf(os.Stderr, "Batch size: %d\n", cfg.BatchSize)
	fmt.Fprintln(os.Stderr)

	_, err = job.Run(ctx)
	return err
}

func statusCommand(c *cli.Context) error {
	cfg := configFrom(c)
	store, err := embedfill.OpenStore(c.Context, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	pending, err := store.CountMissing(c.Context)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrStore, err)
	}
	fmt.Fprintf(c.App.Writer, "Records without embeddings: %d\n", pending)
	return nil
}

func importCommand(c *cli.Context) error {
	chunkSize := c.Int("chunk-size")
	if chunkSize <= 0 {
		return fmt.Errorf("%w: chunk-size must be greater than 0", core.ErrConfiguration)
	}

	source, closeSource, err := openSource(c.String("file"))
	if err != nil {
		return err
	}
	defer closeSource()

	cfg := configFrom(c)
	store, err := embedfill.OpenStore(c.Context, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if t, ok := store.(tableEnsurer); ok {
		if err := t.EnsureTable(c.Context, cfg.Embedding.Dimension); err != nil {
			return fmt.Errorf("%w: %w", core.ErrStore, err)
		}
	}

	count, err := insertBatched(c.Context, store, recordsFromJSONL(source), chunkSize)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Imported %d records\n", count)
	return nil
}

// redact hides the password of a store URL.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid URL>"
	}
	return u.Redacted()
}

// exitCode maps an error kind to the process exit status.
func exitCode(err error) int {
	switch {
	case errors.Is(err, core.ErrConfiguration):
		return 2
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}
