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

package backfill

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/embedfill/ai"
	"github.com/poiesic/embedfill/core"
	"github.com/poiesic/embedfill/storage"
	"golang.org/x/time/rate"
)

// Outcome is the result of a single iteration.
type Outcome struct {
	// Processed is the number of records embedded and written.
	Processed int
	// Completed is true when the fetch found no record missing an embedding.
	Completed bool
}

// Drainer embeds every record missing an embedding, one batch at a time.
//
// Each iteration fetches up to BatchSize records whose embedding is
// absent, embeds their text in one provider call and upserts the vectors
// in one store call. Written records drop out of the next fetch, so the
// loop needs no cursor and can be stopped and restarted at any point.
//
// A Drainer is single-use and not safe for concurrent use.
type Drainer struct {
	store     storage.RecordStore
	embedder  ai.Embedder
	config    *Config
	observers []Observer
	logger    *slog.Logger
	limiter   *rate.Limiter
	runID     string

	state      State
	err        error
	iterations int
	batches    int
	processed  int
}

// Option configures a Drainer.
type Option func(*Drainer)

// WithObserver registers an observer for progress events.
func WithObserver(o Observer) Option {
	return func(d *Drainer) {
		if o != nil {
			d.observers = append(d.observers, o)
		}
	}
}

// WithLogger sets the logger used for failures and diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Drainer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(d *Drainer) {
		if id != "" {
			d.runID = id
		}
	}
}

// NewDrainer creates a drainer over store and embedder.
// A nil config uses DefaultConfig.
func NewDrainer(store storage.RecordStore, embedder ai.Embedder, config *Config, opts ...Option) (*Drainer, error) {
	if store == nil {
		return nil, ErrRecordStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	d := &Drainer{
		store:    store,
		embedder: embedder,
		config:   config,
		logger:   slog.Default(),
		runID:    uuid.NewString(),
		state:    StateFetching,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "drainer", "run", d.runID)

	if config.MaxBatchesPerSecond > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(config.MaxBatchesPerSecond), 1)
	}
	return d, nil
}

// RunID identifies this drain in logs and metrics.
func (d *Drainer) RunID() string {
	return d.runID
}

// State returns the current state.
func (d *Drainer) State() State {
	return d.state
}

// Err returns the error that moved the drainer to StateFailed, if any.
func (d *Drainer) Err() error {
	return d.err
}

// RunOnce performs one fetch, embed and write cycle.
//
// Once the drainer is Completed or Failed, RunOnce returns the terminal
// outcome again without touching the store or the provider.
func (d *Drainer) RunOnce(ctx context.Context) (Outcome, error) {
	switch d.state {
	case StateCompleted:
		return Outcome{Completed: true}, nil
	case StateFailed:
		return Outcome{}, d.err
	}

	if err := ctx.Err(); err != nil {
		return Outcome{}, d.cancel(err)
	}
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return Outcome{}, d.cancel(err)
		}
	}

	d.iterations++
	start := time.Now()

	d.state = StateFetching
	records, err := d.store.FetchMissing(ctx, d.config.BatchSize)
	if err != nil {
		return Outcome{}, d.fail(core.ErrStore, "fetch", 0, err)
	}
	if len(records) == 0 {
		d.state = StateCompleted
		d.logger.Debug("no records missing embeddings", "iteration", d.iterations)
		return Outcome{Completed: true}, nil
	}

	d.state = StateEmbedding
	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.EmbeddingText()
	}

	var vectors [][]float32
	err = RetryWithBackoff(ctx, func(ctx context.Context) error {
		var embedErr error
		vectors, embedErr = d.embedder.EmbedTexts(ctx, texts)
		return embedErr
	}, d.config.Attempts, d.config.RetryDelay)
	if err != nil {
		return Outcome{}, d.fail(core.ErrProvider, "embed", len(records), err)
	}
	if err := checkVectors(vectors, len(texts), d.config.Dimension); err != nil {
		return Outcome{}, d.fail(core.ErrProvider, "embed", len(records), err)
	}

	updates := make([]core.Update, len(records))
	for i, record := range records {
		vec := vectors[i]
		if d.config.Normalize {
			vec = NormalizeVector(vec)
		}
		updates[i] = core.Update{Id: record.Id, Embedding: vec}
	}

	d.state = StateWriting
	if err := d.store.Upsert(ctx, updates...); err != nil {
		return Outcome{}, d.fail(core.ErrStore, "upsert", len(records), err)
	}

	d.state = StateFetching
	d.batches++
	d.processed += len(records)

	event := Event{
		RunID:     d.runID,
		Iteration: d.iterations,
		BatchSize: len(records),
		Processed: d.processed,
		Duration:  time.Since(start),
	}
	for _, o := range d.observers {
		o.BatchProcessed(event)
	}

	return Outcome{Processed: len(records)}, nil
}

// Run calls RunOnce until the store has no record missing an embedding or
// an iteration fails. Context cancellation is honored between iterations;
// records written before the cancellation stay written.
func (d *Drainer) Run(ctx context.Context) (Summary, error) {
	start := time.Now()

	pending, err := d.store.CountMissing(ctx)
	if err != nil {
		d.logger.Warn("could not count pending records", "err", err)
		pending = -1
	}
	for _, o := range d.observers {
		o.RunStarted(d.runID, pending)
	}

	for {
		var outcome Outcome
		outcome, err = d.RunOnce(ctx)
		if err != nil || outcome.Completed {
			break
		}
	}

	summary := Summary{
		RunID:      d.runID,
		Processed:  d.processed,
		Iterations: d.iterations,
		Batches:    d.batches,
		Elapsed:    time.Since(start),
		State:      d.state,
	}
	for _, o := range d.observers {
		o.RunFinished(summary, err)
	}
	return summary, err
}

// fail moves the drainer to StateFailed with a BatchError.
func (d *Drainer) fail(kind error, op string, size int, cause error) error {
	d.state = StateFailed
	d.err = &BatchError{
		Kind:      kind,
		Op:        op,
		Iteration: d.iterations,
		Size:      size,
		Err:       cause,
	}
	d.logger.Debug("batch abandoned", "op", op, "iteration", d.iterations, "size", size, "err", cause)
	return d.err
}

// cancel moves the drainer to StateFailed because ctx ended between
// iterations. Nothing of the next batch has been fetched yet.
func (d *Drainer) cancel(cause error) error {
	d.state = StateFailed
	d.err = cause
	d.logger.Info("backfill interrupted", "iteration", d.iterations, "processed", d.processed)
	return d.err
}
