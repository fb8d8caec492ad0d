package core

import (
	"errors"
	"testing"
)

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  *Record
		wantErr error
	}{
		{
			name:    "valid record",
			record:  &Record{Id: "42", Title: "Go", Description: "Concurrency"},
			wantErr: nil,
		},
		{
			name:    "valid record with empty text fields",
			record:  &Record{Id: "42"},
			wantErr: nil,
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: ErrInvalidRecord,
		},
		{
			name:    "empty id",
			record:  &Record{Title: "Go"},
			wantErr: ErrEmptyID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecord(tt.record)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateRecord() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRecord() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	tests := []struct {
		name    string
		update  Update
		wantErr error
	}{
		{
			name:    "valid update",
			update:  Update{Id: "1", Embedding: []float32{0.1, 0.2, 0.3}},
			wantErr: nil,
		},
		{
			name:    "empty id",
			update:  Update{Embedding: []float32{0.1}},
			wantErr: ErrEmptyID,
		},
		{
			name:    "nil embedding",
			update:  Update{Id: "1"},
			wantErr: ErrEmptyEmbedding,
		},
		{
			name:    "zero-length embedding",
			update:  Update{Id: "1", Embedding: []float32{}},
			wantErr: ErrEmptyEmbedding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpdate(tt.update)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateUpdate() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateUpdate() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidUpdate) {
				t.Errorf("ValidateUpdate() error = %v, should wrap ErrInvalidUpdate", err)
			}
		})
	}
}
