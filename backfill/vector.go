package backfill

import (
	"fmt"
	"math"
)

// NormalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	magnitude := float32(math.Sqrt(sum))

	result := make([]float32, len(v))
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}

// checkVectors verifies the provider answered one non-empty vector per text
// and that all vectors share one length (dimension, when non-zero).
func checkVectors(vectors [][]float32, texts int, dimension int) error {
	if len(vectors) != texts {
		return fmt.Errorf("%w: expected %d vectors, got %d", ErrMalformedResponse, texts, len(vectors))
	}
	if texts == 0 {
		return nil
	}

	want := dimension
	if want == 0 {
		want = len(vectors[0])
	}
	for i, vec := range vectors {
		if len(vec) == 0 {
			return fmt.Errorf("%w: vector %d is empty", ErrMalformedResponse, i)
		}
		if len(vec) != want {
			return fmt.Errorf("%w: vector %d has %d dimensions, want %d", ErrMalformedResponse, i, len(vec), want)
		}
	}
	return nil
}
