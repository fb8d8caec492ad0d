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


// Package embedfill wires a record store, an embedding provider and the
// drain loop together from process configuration.
package embedfill

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/poiesic/embedfill/ai"
	"github.com/poiesic/embedfill/ai/hugot"
	"github.com/poiesic/embedfill/ai/mock"
	"github.com/poiesic/embedfill/ai/openai"
	"github.com/poiesic/embedfill/backfill"
	"github.com/poiesic/embedfill/config"
	"github.com/poiesic/embedfill/core"
	"github.com/poiesic/embedfill/metrics"
	"github.com/poiesic/embedfill/storage"
	"github.com/poiesic/embedfill/storage/badger"
	"github.com/poiesic/embedfill/storage/postgres"
)

// pushTimeout bounds the metrics push after a run.
const pushTimeout = 10 * time.Second

// Job is a configured backfill: an open store, an embedder and the
// observers that report on the drain.
type Job struct {
	config        config.Config
	store         storage.RecordStore
	embedder      ai.Embedder
	closeEmbedder func() error
	collector     *metrics.Collector
	observers     []backfill.Observer
	logger        *slog.Logger
}

// Option configures a Job.
type Option func(*jobOptions)

type jobOptions struct {
	logger    *slog.Logger
	observers []backfill.Observer
	store     storage.RecordStore
	embedder  ai.Embedder
}

// WithLogger sets the logger for the job and the drain loop.
func WithLogger(logger *slog.Logger) Option {
	return func(o *jobOptions) {
		o.logger = logger
	}
}

// WithObserver adds an observer, such as a terminal progress tracker.
func WithObserver(observer backfill.Observer) Option {
	return func(o *jobOptions) {
		o.observers = append(o.observers, observer)
	}
}

// WithStore uses store instead of opening the configured store URL.
// The job takes ownership of store.
func WithStore(store storage.RecordStore) Option {
	return func(o *jobOptions) {
		o.store = store
	}
}

// WithEmbedder uses embedder instead of the configured provider.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(o *jobOptions) {
		o.embedder = embedder
	}
}

// Open validates cfg and opens the store and the embedder.
// Configuration problems are reported before anything is opened.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*Job, error) {
	options := &jobOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	if options.store == nil || options.embedder == nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	store := options.store
	if store == nil {
		var err error
		if store, err = OpenStore(ctx, cfg); err != nil {
			return nil, err
		}
	}

	embedder := options.embedder
	closeEmbedder := func() error { return nil }
	if embedder == nil {
		var err error
		if embedder, closeEmbedder, err = NewEmbedder(cfg.AIConfig()); err != nil {
			store.Close()
			return nil, err
		}
	}

	return &Job{
		config:        cfg,
		store:         store,
		embedder:      embedder,
		closeEmbedder: closeEmbedder,
		collector:     metrics.NewCollector(),
		observers:     options.observers,
		logger:        options.logger.With("component", "embedfill"),
	}, nil
}

// Store returns the job's record store.
func (j *Job) Store() storage.RecordStore {
	return j.store
}

// Metrics returns the collector fed by Run.
func (j *Job) Metrics() *metrics.Collector {
	return j.collector
}

// Pending counts records still missing an embedding.
func (j *Job) Pending(ctx context.Context) (int, error) {
	n, err := j.store.CountMissing(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrStore, err)
	}
	return n, nil
}

// Run drains the store. Metrics are pushed to the configured Pushgateway
// afterwards, also when the drain failed; a failed push is only logged.
func (j *Job) Run(ctx context.Context) (backfill.Summary, error) {
	opts := []backfill.Option{
		backfill.WithLogger(j.logger),
		backfill.WithObserver(backfill.NewLogObserver(j.logger)),
		backfill.WithObserver(j.collector),
	}
	for _, o := range j.observers {
		opts = append(opts, backfill.WithObserver(o))
	}

	drainer, err := backfill.NewDrainer(j.store, j.embedder, j.config.BackfillConfig(), opts...)
	if err != nil {
		return backfill.Summary{}, err
	}

	summary, err := drainer.Run(ctx)

	if j.config.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
		defer cancel()
		if pushErr := j.collector.Push(pushCtx, j.config.PushgatewayURL); pushErr != nil {
			j.logger.Warn("metrics push failed", "url", j.config.PushgatewayURL, "err", pushErr)
		}
	}
	return summary, err
}

// Close releases the embedder and the store.
func (j *Job) Close() error {
	if err := j.closeEmbedder(); err != nil {
		j.logger.Error("error closing embedder", "err", err)
	}
	if err := j.store.Close(); err != nil {
		j.logger.Error("error closing store", "err", err)
		return err
	}
	return nil
}

// OpenStore opens the record store named by cfg.StoreURL.
//
//   - badger:///path opens a local store; badger:// with no path is in-memory.
//     The credential derives the encryption key.
//   - postgres:// and postgresql:// connect to PostgreSQL with the
//     credential as password unless the URL carries one.
//   - sqlite:///path opens a SQLite file; the credential is unused.
func OpenStore(ctx context.Context, cfg config.Config) (storage.RecordStore, error) {
	if err := cfg.ValidateStore(); err != nil {
		return nil, err
	}
	u, err := url.Parse(cfg.StoreURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid store URL: %w", core.ErrConfiguration, err)
	}

	var store storage.RecordStore
	switch u.Scheme {
	case "badger":
		store, err = badger.Open(u.Host+u.Path, cfg.Credential())
	case "postgres", "postgresql":
		dsn, dsnErr := postgres.WithPassword(cfg.StoreURL, cfg.Credential())
		if dsnErr != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrConfiguration, dsnErr)
		}
		store, err = postgres.Open(ctx, dsn, cfg.StoreTable)
	case "sqlite":
		store, err = postgres.Open(ctx, cfg.StoreURL, cfg.StoreTable)
	default:
		return nil, fmt.Errorf("%w: %w: %q", core.ErrConfiguration, storage.ErrUnsupportedURL, u.Scheme)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open store: %w", core.ErrStore, err)
	}
	return store, nil
}

// NewEmbedder creates the embedder selected by cfg.Provider. The returned
// function releases its resources.
func NewEmbedder(cfg *ai.Config) (ai.Embedder, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	noop := func() error { return nil }
	switch cfg.Provider {
	case ai.ProviderMock:
		return mock.NewMockEmbedderWithDimension(cfg.Dimension), noop, nil
	case ai.ProviderOpenAI:
		embedder, err := openai.NewEmbedder(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", core.ErrProvider, err)
		}
		return embedder, noop, nil
	case ai.ProviderHugot:
		embedder, err := hugot.NewEmbedder(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", core.ErrProvider, err)
		}
		return embedder, embedder.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown provider %q", core.ErrConfiguration, cfg.Provider)
	}
}
