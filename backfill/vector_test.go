package backfill

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVector(t *testing.T) {
	tests := []struct {
		name     string
		input    []float32
		expected []float32
	}{
		{"unit vector remains unchanged", []float32{1, 0, 0}, []float32{1, 0, 0}},
		{"scale non-unit vector", []float32{3, 4}, []float32{0.6, 0.8}},
		{"negative values", []float32{-1, 1}, []float32{-1 / float32(math.Sqrt2), 1 / float32(math.Sqrt2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeVector(tt.input)
			require.Len(t, result, len(tt.expected))
			for i := range result {
				assert.InDelta(t, tt.expected[i], result[i], 1e-6, "element %d", i)
			}
		})
	}
}

func TestNormalizeVector_ZeroAndEmpty(t *testing.T) {
	assert.Equal(t, []float32{0, 0}, NormalizeVector([]float32{0, 0}))
	assert.Empty(t, NormalizeVector(nil))
}

func TestNormalizeVector_DoesNotMutateInput(t *testing.T) {
	input := []float32{3, 4}
	NormalizeVector(input)
	assert.Equal(t, []float32{3, 4}, input)
}

func TestCheckVectors(t *testing.T) {
	ok := [][]float32{{1, 2}, {3, 4}}
	assert.NoError(t, checkVectors(ok, 2, 0))
	assert.NoError(t, checkVectors(ok, 2, 2))
	assert.ErrorIs(t, checkVectors(ok, 3, 0), ErrMalformedResponse)
	assert.ErrorIs(t, checkVectors(ok, 2, 384), ErrMalformedResponse)
	assert.ErrorIs(t, checkVectors([][]float32{{1}, nil}, 2, 0), ErrMalformedResponse)
	assert.NoError(t, checkVectors(nil, 0, 384))
}
