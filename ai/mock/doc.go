// Package mock provides a test double for ai.Embedder.
//
// MockEmbedder returns deterministic vectors derived from an FNV hash of
// each text, so tests can run the drain loop without a model or network.
// It is also what the CLI uses for dry runs (EMBEDFILL_EMBEDDING_PROVIDER=mock).
//
// # Usage in Tests
//
//	embedder := mock.NewMockEmbedderWithDimension(8)
//	vectors, err := embedder.EmbedTexts(ctx, []string{"a", "b"})
//
//	// Custom behavior injection
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("provider down")
//	}
//
//	// Assertions
//	count := embedder.CallCount()
//	seen := embedder.Texts()
package mock
