package backfill

import (
	"log/slog"
	"time"
)

// Event describes one successfully written batch.
type Event struct {
	RunID     string
	Iteration int
	// BatchSize is the number of records written in this iteration.
	BatchSize int
	// Processed is the running total for the run.
	Processed int
	// Duration covers fetch, embed and upsert of this batch.
	Duration time.Duration
}

// Summary describes a finished run.
type Summary struct {
	RunID     string
	Processed int
	// Iterations counts loop iterations, including the final empty fetch.
	Iterations int
	// Batches counts iterations that wrote records.
	Batches int
	Elapsed time.Duration
	State   State
}

// Observer receives drain progress. Observers run synchronously on the
// drain goroutine and must not block.
type Observer interface {
	// RunStarted is called once per Run. pending is the number of records
	// missing an embedding, or -1 when the store could not count them.
	RunStarted(runID string, pending int)
	// BatchProcessed is called after each successful upsert.
	BatchProcessed(event Event)
	// RunFinished is called when Run returns. err is nil on completion.
	RunFinished(summary Summary, err error)
}

// LogObserver logs drain progress with slog.
type LogObserver struct {
	logger *slog.Logger
}

var _ Observer = (*LogObserver)(nil)

// NewLogObserver creates an observer logging through logger, or through
// slog.Default when logger is nil.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger.With("component", "backfill")}
}

func (o *LogObserver) RunStarted(runID string, pending int) {
	if pending < 0 {
		o.logger.Info("starting backfill", "run", runID)
		return
	}
	o.logger.Info("starting backfill", "run", runID, "pending", pending)
}

func (o *LogObserver) BatchProcessed(e Event) {
	o.logger.Debug("batch written",
		"run", e.RunID,
		"iteration", e.Iteration,
		"size", e.BatchSize,
		"processed", e.Processed,
		"duration", e.Duration,
	)
}

func (o *LogObserver) RunFinished(s Summary, err error) {
	if err != nil {
		o.logger.Error("backfill stopped",
			"run", s.RunID,
			"kind", Kind(err),
			"processed", s.Processed,
			"iterations", s.Iterations,
			"elapsed", s.Elapsed,
			"err", err,
		)
		return
	}
	o.logger.Info("backfill complete",
		"run", s.RunID,
		"processed", s.Processed,
		"batches", s.Batches,
		"elapsed", s.Elapsed,
	)
}
