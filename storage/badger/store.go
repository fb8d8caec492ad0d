package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/embedfill/core"
	"github.com/poiesic/embedfill/storage"
)

// RecordStore implements storage.RecordStore for BadgerDB.
//
// Each record is stored under rec:<id>. While a record has no embedding a
// second key, recpend:<id>, marks it as pending; FetchMissing scans only
// that index, and Upsert drops the marker in the same transaction that
// writes the vector.
type RecordStore struct {
	backend *Backend
}

var _ storage.RecordStore = (*RecordStore)(nil)

// NewRecordStore creates a RecordStore over an open backend.
// The store takes ownership of the backend and closes it on Close.
func NewRecordStore(backend *Backend) *RecordStore {
	return &RecordStore{backend: backend}
}

// Open opens (or creates) a record store at path. An empty path opens an
// in-memory store. A non-empty credential enables at-rest encryption with
// a key derived from it.
func Open(path, credential string) (storage.RecordStore, error) {
	var key []byte
	if credential != "" {
		var err error
		if key, err = DeriveEncryptionKey(credential); err != nil {
			return nil, err
		}
	}
	backend, err := OpenBackend(path, path == "", key)
	if err != nil {
		return nil, err
	}
	return NewRecordStore(backend), nil
}

// Close closes the underlying backend.
func (s *RecordStore) Close() error {
	return s.backend.Close()
}

// FetchMissing returns up to limit records that have no embedding,
// in key order of their ids.
func (s *RecordStore) FetchMissing(ctx context.Context, limit int) ([]*core.Record, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", storage.ErrInvalidQuery, limit)
	}
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	var results []*core.Record
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(pendingPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid() && len(results) < limit; iter.Next() {
			id := idFromPendingKey(iter.Item().KeyCopy(nil))
			record, err := readRecord(tx, id)
			if err != nil {
				return err
			}
			if record == nil {
				// Stale marker without a record; nothing to embed.
				continue
			}
			results = append(results, &core.Record{
				Id:          record.Id,
				Title:       record.Title,
				Description: record.Description,
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Upsert writes all embeddings in one transaction.
func (s *RecordStore) Upsert(ctx context.Context, updates ...core.Update) error {
	if len(updates) == 0 {
		return nil
	}
	if err := s.check(ctx); err != nil {
		return err
	}
	for _, update := range updates {
		if err := core.ValidateUpdate(update); err != nil {
			return err
		}
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, update := range updates {
			record, err := readRecord(tx, update.Id)
			if err != nil {
				return err
			}
			if record == nil {
				record = &core.Record{Id: update.Id, InsertedAt: now}
			}
			record.Embedding = update.Embedding
			record.UpdatedAt = now

			if err := tx.Set(makeRecordKey(record.Id), storage.MarshalRecord(record)); err != nil {
				return err
			}
			if err := tx.Delete(makePendingKey(record.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// CountMissing counts pending index entries.
func (s *RecordStore) CountMissing(ctx context.Context) (int, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}

	count := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(pendingPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Insert adds records that do not exist yet. Records without an embedding
// are indexed as pending.
func (s *RecordStore) Insert(ctx context.Context, records ...*core.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.check(ctx); err != nil {
		return err
	}
	for _, record := range records {
		if err := core.ValidateRecord(record); err != nil {
			return err
		}
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, record := range records {
			existing, err := readRecord(tx, record.Id)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}

			if record.InsertedAt.IsZero() {
				record.InsertedAt = now
			}
			record.UpdatedAt = now

			if err := tx.Set(makeRecordKey(record.Id), storage.MarshalRecord(record)); err != nil {
				return err
			}
			if !record.HasEmbedding() {
				if err := tx.Set(makePendingKey(record.Id), nil); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)
}

// Get retrieves records by id, skipping ids that do not exist.
func (s *RecordStore) Get(ctx context.Context, ids ...core.ID) ([]*core.Record, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	results := make([]*core.Record, 0, len(ids))
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			record, err := readRecord(tx, id)
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *RecordStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

// readRecord reads a record from the transaction.
// Returns nil without error when the record does not exist.
func readRecord(tx *badger.Txn, id core.ID) (*core.Record, error) {
	item, err := tx.Get(makeRecordKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var record *core.Record
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalRecord(val)
		return unmarshalErr
	})
	return record, err
}
