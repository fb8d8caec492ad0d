package core

import (
	"errors"
	"testing"
	"time"
)

func TestRecordMUS_RoundTrip(t *testing.T) {
	inserted := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	record := Record{
		Id:          "course-17",
		Title:       "Distributed Systems",
		Description: "Consensus, replication and failure",
		Embedding:   []float32{0.25, -0.5, 1.0},
		InsertedAt:  inserted,
		UpdatedAt:   inserted.Add(time.Minute),
	}

	buf := make([]byte, RecordMUS.Size(record))
	n := RecordMUS.Marshal(record, buf)
	if n != len(buf) {
		t.Fatalf("Marshal wrote %d bytes, Size reported %d", n, len(buf))
	}

	got, read, err := RecordMUS.Unmarshal(buf)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if read != n {
		t.Errorf("Unmarshal read %d bytes, want %d", read, n)
	}
	if got.Id != record.Id || got.Title != record.Title || got.Description != record.Description {
		t.Errorf("Unmarshal() text fields = %+v, want %+v", got, record)
	}
	if len(got.Embedding) != len(record.Embedding) {
		t.Fatalf("embedding length = %d, want %d", len(got.Embedding), len(record.Embedding))
	}
	for i := range record.Embedding {
		if got.Embedding[i] != record.Embedding[i] {
			t.Errorf("embedding[%d] = %v, want %v", i, got.Embedding[i], record.Embedding[i])
		}
	}
	if !got.InsertedAt.Equal(record.InsertedAt) || !got.UpdatedAt.Equal(record.UpdatedAt) {
		t.Errorf("timestamps = %v/%v, want %v/%v", got.InsertedAt, got.UpdatedAt, record.InsertedAt, record.UpdatedAt)
	}
}

func TestRecordMUS_MissingEmbeddingStaysNil(t *testing.T) {
	record := Record{Id: "1", Title: "No vector yet"}

	buf := make([]byte, RecordMUS.Size(record))
	RecordMUS.Marshal(record, buf)

	got, _, err := RecordMUS.Unmarshal(buf)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.Embedding != nil {
		t.Errorf("Embedding = %v, want nil", got.Embedding)
	}
	if got.HasEmbedding() {
		t.Error("decoded record should not have an embedding")
	}
}

func TestRecordMUS_Truncated(t *testing.T) {
	record := Record{Id: "1", Title: "Go", Embedding: []float32{1, 2, 3}}
	buf := make([]byte, RecordMUS.Size(record))
	RecordMUS.Marshal(record, buf)

	_, _, err := RecordMUS.Unmarshal(buf[:len(buf)/2])
	if err == nil {
		t.Fatal("Unmarshal() of truncated data should fail")
	}
	if errors.Is(err, ErrInvalidRecord) {
		t.Errorf("truncation should not be reported as a validation error: %v", err)
	}
}
