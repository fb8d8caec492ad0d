package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
)

// DefaultDimension matches all-MiniLM-L6-v2.
const DefaultDimension = 384

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
type MockEmbedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses default deterministic behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	dimension int

	mu        sync.Mutex
	callCount int
	texts     []string
}

// NewMockEmbedder creates a mock embedder producing DefaultDimension vectors.
// Returns the concrete type so tests can inject behavior and assert on calls.
func NewMockEmbedder() *MockEmbedder {
	return NewMockEmbedderWithDimension(DefaultDimension)
}

// NewMockEmbedderWithDimension creates a mock embedder producing vectors of
// the given length.
func NewMockEmbedderWithDimension(dimension int) *MockEmbedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &MockEmbedder{dimension: dimension}
}

// EmbedText generates a deterministic embedding based on text hash.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.record(text)

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return Vector(text, m.dimension), nil
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.record(texts...)

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = Vector(text, m.dimension)
	}
	return embeddings, nil
}

func (m *MockEmbedder) record(texts ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	m.texts = append(m.texts, texts...)
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Texts returns every text submitted so far, in submission order.
func (m *MockEmbedder) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// Reset clears the call count, recorded texts and injected behavior.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.texts = nil
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

// Vector creates a deterministic unit-length embedding vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func Vector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000)/1000.0 - 0.5
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares > 0 {
		norm := float32(1 / math.Sqrt(sumSquares))
		for i := range vector {
			vector[i] *= norm
		}
	}

	return vector
}
