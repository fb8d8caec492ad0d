package ai

import "context"

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice holds exactly one vector per input, in input order.
	// Identical input yields identical output.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
