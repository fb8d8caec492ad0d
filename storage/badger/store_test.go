package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/embedfill/core"
	"github.com/poiesic/embedfill/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *RecordStore {
	t.Helper()
	store, err := NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seed(t *testing.T, store storage.RecordStore, n int) []core.ID {
	t.Helper()
	records := make([]*core.Record, n)
	ids := make([]core.ID, n)
	for i := range records {
		ids[i] = core.ID(fmt.Sprintf("course-%03d", i))
		records[i] = &core.Record{
			Id:          ids[i],
			Title:       fmt.Sprintf("Course %d", i),
			Description: "Description",
		}
	}
	require.NoError(t, store.Insert(context.Background(), records...))
	return ids
}

func TestRecordStore_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Insert(ctx,
		&core.Record{Id: "a", Title: "Alpha", Description: "First"},
		&core.Record{Id: "b", Title: "Beta", Embedding: []float32{1, 0}},
	))

	records, err := store.Get(ctx, "a", "b", "missing")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Alpha", records[0].Title)
	assert.False(t, records[0].InsertedAt.IsZero())
	assert.Equal(t, []float32{1, 0}, records[1].Embedding)

	count, err := store.CountMissing(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "only the record without an embedding is pending")
}

func TestRecordStore_InsertSkipsExisting(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Insert(ctx, &core.Record{Id: "a", Title: "Original"}))
	require.NoError(t, store.Insert(ctx, &core.Record{Id: "a", Title: "Replacement"}))

	records, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Original", records[0].Title)
}

func TestRecordStore_InsertRejectsEmptyID(t *testing.T) {
	store := newTestStore(t)
	err := store.Insert(context.Background(), &core.Record{Title: "No id"})
	assert.ErrorIs(t, err, core.ErrEmptyID)
}

func TestRecordStore_FetchMissingRespectsLimit(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seed(t, store, 7)

	batch, err := store.FetchMissing(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, batch, 5)
	for _, r := range batch {
		assert.NotEmpty(t, r.Id)
		assert.NotEmpty(t, r.Title)
		assert.Nil(t, r.Embedding)
	}

	_, err = store.FetchMissing(ctx, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestRecordStore_UpsertDrainsPending(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	ids := seed(t, store, 3)

	require.NoError(t, store.Upsert(ctx,
		core.Update{Id: ids[0], Embedding: []float32{0.1}},
		core.Update{Id: ids[1], Embedding: []float32{0.2}},
	))

	batch, err := store.FetchMissing(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, ids[2], batch[0].Id)

	records, err := store.Get(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []float32{0.1}, records[0].Embedding)
	assert.Equal(t, "Course 0", records[0].Title, "upsert must keep text fields")
}

func TestRecordStore_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	ids := seed(t, store, 1)

	update := core.Update{Id: ids[0], Embedding: []float32{0.5, 0.5}}
	require.NoError(t, store.Upsert(ctx, update))
	require.NoError(t, store.Upsert(ctx, update))

	records, err := store.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, update.Embedding, records[0].Embedding)

	count, err := store.CountMissing(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRecordStore_UpsertUnknownIDCreatesRecord(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Upsert(ctx, core.Update{Id: "new", Embedding: []float32{1}}))

	records, err := store.Get(ctx, "new")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []float32{1}, records[0].Embedding)
}

func TestRecordStore_UpsertIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	ids := seed(t, store, 2)

	err := store.Upsert(ctx,
		core.Update{Id: ids[0], Embedding: []float32{1}},
		core.Update{Id: ids[1]},
	)
	require.ErrorIs(t, err, core.ErrEmptyEmbedding)

	count, err := store.CountMissing(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "a rejected batch must not write any embedding")
}

func TestRecordStore_ClosedStore(t *testing.T) {
	store, err := NewMemoryStore()
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.FetchMissing(context.Background(), 10)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestRecordStore_CancelledContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.CountMissing(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
