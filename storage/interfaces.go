package storage

import (
	"context"

	"github.com/poiesic/embedfill/core"
)

// RecordStore provides the operations the drain loop and its tooling need
// from a table of records.
// Implementations must be safe for use from multiple goroutines, although
// the drain loop itself calls them sequentially.
type RecordStore interface {
	// FetchMissing returns up to limit records whose embedding is absent.
	// Only Id, Title and Description are populated. The order is
	// implementation-defined and callers must not rely on it.
	// An empty result means no record is missing an embedding.
	FetchMissing(ctx context.Context, limit int) ([]*core.Record, error)

	// Upsert writes each update's embedding to the record with the same id,
	// creating the record if it does not exist. All updates of one call are
	// applied atomically: either every embedding is written or none is.
	// Writing the same update twice leaves the store unchanged.
	Upsert(ctx context.Context, updates ...core.Update) error

	// CountMissing returns the number of records whose embedding is absent.
	CountMissing(ctx context.Context) (int, error)

	// Insert adds records to the store. Records whose id already exists are
	// left untouched. A record's Embedding, when set, is stored as is.
	Insert(ctx context.Context, records ...*core.Record) error

	// Get retrieves records by id.
	// Returns only the records that exist (no error for missing ids).
	Get(ctx context.Context, ids ...core.ID) ([]*core.Record, error)

	// Close releases the store's resources.
	Close() error
}
