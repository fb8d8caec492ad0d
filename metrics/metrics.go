// Package metrics exposes drain progress as Prometheus metrics.
//
// A Collector is a backfill.Observer. Batch jobs are short-lived, so the
// collected values are pushed to a Pushgateway when the run ends instead
// of being scraped.
package metrics

import (
	"context"
	"fmt"

	"github.com/poiesic/embedfill/backfill"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// JobName is the Pushgateway job label.
const JobName = "embedfill"

// Collector holds the drain metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry
	runID    string

	RecordsEmbedded prometheus.Counter
	Batches         *prometheus.CounterVec
	BatchDuration   prometheus.Histogram
	PendingRecords  prometheus.Gauge
	LastRunSuccess  prometheus.Gauge
}

var _ backfill.Observer = (*Collector)(nil)

// NewCollector creates a Collector with all metrics registered on a fresh
// registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		// Records whose embedding was written.
		RecordsEmbedded: factory.NewCounter(prometheus.CounterOpts{
			Name: "embedfill_records_embedded_total",
			Help: "Total number of records whose embedding was written",
		}),

		// Batches by outcome: "written", or the failure kind that ended the run.
		Batches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embedfill_batches_total",
				Help: "Total number of batches by outcome",
			},
			[]string{"outcome"},
		),

		// Fetch, embed and upsert time per batch. Local models on CPU sit in
		// the seconds range for 50 texts.
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "embedfill_batch_duration_seconds",
			Help:    "Duration of one fetch, embed and upsert cycle in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		PendingRecords: factory.NewGauge(prometheus.GaugeOpts{
			Name: "embedfill_pending_records",
			Help: "Records still missing an embedding, as estimated during the run",
		}),

		LastRunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "embedfill_last_run_success",
			Help: "1 if the last run drained the store, 0 if it failed",
		}),
	}
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RunStarted implements backfill.Observer.
func (c *Collector) RunStarted(runID string, pending int) {
	c.runID = runID
	if pending >= 0 {
		c.PendingRecords.Set(float64(pending))
	}
}

// BatchProcessed implements backfill.Observer.
func (c *Collector) BatchProcessed(e backfill.Event) {
	c.RecordsEmbedded.Add(float64(e.BatchSize))
	c.Batches.WithLabelValues("written").Inc()
	c.BatchDuration.Observe(e.Duration.Seconds())
	c.PendingRecords.Sub(float64(e.BatchSize))
}

// RunFinished implements backfill.Observer.
func (c *Collector) RunFinished(_ backfill.Summary, err error) {
	if err != nil {
		c.Batches.WithLabelValues(backfill.Kind(err)).Inc()
		c.LastRunSuccess.Set(0)
		return
	}
	c.PendingRecords.Set(0)
	c.LastRunSuccess.Set(1)
}

// Push sends all metrics to the Pushgateway at url, grouped by run id.
func (c *Collector) Push(ctx context.Context, url string) error {
	pusher := push.New(url, JobName).Gatherer(c.registry)
	if c.runID != "" {
		pusher = pusher.Grouping("run", c.runID)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
