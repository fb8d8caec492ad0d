package core

import "time"

// ID is the unique key of a record. Stores treat it as an opaque string;
// numeric and UUID primary keys are carried in their text form.
type ID string

// Record is a row of the embedded table.
// Title and Description are optional; an absent value is the empty string.
// Embedding stays nil until the record has been backfilled.
type Record struct {
	Id          ID
	Title       string
	Description string
	Embedding   []float32
	InsertedAt  time.Time // When the record was inserted into the store
	UpdatedAt   time.Time // When the record was last written
}

// EmbeddingText returns the text the record's embedding is computed from:
// the title and description joined by a single space. Both fields empty
// yields a single space, which is still embedded.
func (r *Record) EmbeddingText() string {
	return r.Title + " " + r.Description
}

// HasEmbedding reports whether an embedding has been written for the record.
func (r *Record) HasEmbedding() bool {
	return len(r.Embedding) > 0
}

// Update pairs a record ID with its freshly computed embedding.
// Updates live for one drain iteration and are written back by upsert.
type Update struct {
	Id        ID
	Embedding []float32
}
