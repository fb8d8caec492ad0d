// Package backfill drains a record store of records that lack an embedding.
//
// The Drainer repeats a fetch, embed, upsert cycle in batches until a
// fetch comes back empty. Progress is reported to Observers; the package
// ships a terminal ProgressTracker and a slog-based LogObserver, and the
// metrics package adds Prometheus collectors.
//
// Any provider or store failure abandons the current batch and ends the
// run with a *BatchError. Nothing is lost: the abandoned records still
// lack an embedding and are fetched again by the next run.
package backfill
