package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/google/uuid"
	"github.com/poiesic/embedfill/core"
	"github.com/poiesic/embedfill/storage"
)

// importRow is one line of an import file.
type importRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// tableEnsurer is implemented by stores that can create their table.
type tableEnsurer interface {
	EnsureTable(ctx context.Context, dimension int) error
}

// openSource opens path for reading; "-" is stdin.
func openSource(path string) (io.Reader, func() error, error) {
	if path == "-" {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open import file: %w", err)
	}
	return f, f.Close, nil
}

// recordsFromJSONL returns an iterator over the records in r.
// Rows without an id get a random one. Iteration stops at the first
// malformed row, which is yielded as an error.
func recordsFromJSONL(r io.Reader) iter.Seq2[*core.Record, error] {
	return func(yield func(*core.Record, error) bool) {
		dec := json.NewDecoder(r)
		for line := 1; ; line++ {
			var row importRow
			if err := dec.Decode(&row); err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				yield(nil, fmt.Errorf("record %d: %w", line, err))
				return
			}
			if row.ID == "" {
				row.ID = uuid.NewString()
			}
			record := &core.Record{
				Id:          core.ID(row.ID),
				Title:       row.Title,
				Description: row.Description,
			}
			if !yield(record, nil) {
				return
			}
		}
	}
}

// insertBatched inserts records from source in chunks of batchSize and
// returns how many were submitted.
func insertBatched(ctx context.Context, store storage.RecordStore, source iter.Seq2[*core.Record, error], batchSize int) (int, error) {
	batch := make([]*core.Record, 0, batchSize)
	total := 0

	flush := func() error {
		if err := store.Insert(ctx, batch...); err != nil {
			return fmt.Errorf("%w: insert records: %w", core.ErrStore, err)
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	for record, err := range source {
		if err != nil {
			return total, err
		}
		batch = append(batch, record)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}

	// Insert any remaining records
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return total, err
		}
	}
	return total, nil
}
