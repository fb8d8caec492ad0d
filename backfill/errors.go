package backfill

import (
	"errors"
	"fmt"

	"github.com/poiesic/embedfill/core"
)

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrRecordStoreRequired is returned when a Drainer is built without a store.
	ErrRecordStoreRequired = errors.New("record store is required")

	// ErrEmbedderRequired is returned when a Drainer is built without an embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrMalformedResponse indicates the provider returned vectors that do
	// not line up with the submitted texts.
	ErrMalformedResponse = errors.New("malformed embedding response")
)

// BatchError reports the failure that ended a drain.
// It matches its Kind with errors.Is and unwraps to the underlying cause.
type BatchError struct {
	// Kind is core.ErrProvider or core.ErrStore.
	Kind error
	// Op is the step that failed: "fetch", "embed" or "upsert".
	Op string
	// Iteration is the 1-based loop iteration the failure happened in.
	Iteration int
	// Size is the number of records in the abandoned batch (0 for fetch).
	Size int
	Err  error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%v: %s failed in iteration %d (batch of %d): %v", e.Kind, e.Op, e.Iteration, e.Size, e.Err)
}

func (e *BatchError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Kind names the failure kind of err for logs and metrics labels.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, core.ErrConfiguration):
		return "configuration"
	case errors.Is(err, core.ErrProvider):
		return "provider"
	case errors.Is(err, core.ErrStore):
		return "store"
	default:
		return "other"
	}
}
