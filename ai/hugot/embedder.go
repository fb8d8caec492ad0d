package hugot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/poiesic/embedfill/ai"
)

// batchMax bounds the texts handed to one pipeline run.
const batchMax = 10

// tokenizerFile marks a directory as a usable model directory.
const tokenizerFile = "tokenizer.json"

// Embedder runs a sentence-transformer feature-extraction model locally.
//
// Vectors are mean-pooled and L2-normalized, matching the output of the
// sentence-transformers all-MiniLM-L6-v2 pipeline. Inference is
// serialized: ONNX Runtime sessions are not safe for concurrent use, and
// only one ORT session may exist per process.
type Embedder struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
	mu       sync.Mutex
	logger   *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder loads the model found in config.ModelDir.
// The caller must Close the embedder to release the session.
func NewEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	modelPath, err := ResolveModelPath(config.ModelDir, config.Model)
	if err != nil {
		return nil, err
	}

	session, err := newSession()
	if err != nil {
		return nil, fmt.Errorf("create hugot session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedfill-" + filepath.Base(modelPath),
		Options: []hugot.FeatureExtractionOption{
			pipelines.WithNormalization(),
		},
	})
	if err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("create feature extraction pipeline: %w", err)
	}

	logger := slog.Default().With("component", "hugot-embedder", "model", filepath.Base(modelPath))
	logger.Info("model loaded", "path", modelPath)

	return &Embedder{
		session:  session,
		pipeline: pipeline,
		logger:   logger,
	}, nil
}

// ResolveModelPath finds the directory holding tokenizer.json.
// It accepts dir itself, dir/<model>, or the first subdirectory of dir
// that contains a tokenizer, in that order.
func ResolveModelPath(dir, model string) (string, error) {
	candidates := []string{dir}
	if model != "" {
		candidates = append(candidates, filepath.Join(dir, model))
	}
	for _, candidate := range candidates {
		if hasTokenizer(candidate) {
			return candidate, nil
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read model directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(dir, entry.Name())
		if hasTokenizer(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no model directory with %s found in %s", tokenizerFile, dir)
}

func hasTokenizer(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, tokenizerFile))
	return err == nil
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts runs the model over texts in chunks of at most batchMax.
// Cancellation is checked between chunks.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pipeline == nil {
		return nil, fmt.Errorf("hugot embedder is closed")
	}

	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchMax {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+batchMax, len(texts))

		result, err := e.pipeline.RunPipeline(texts[start:end])
		if err != nil {
			e.logger.Error("embedding pipeline failed", "count", end-start, "err", err)
			return nil, fmt.Errorf("run embedding pipeline: %w", err)
		}
		vectors = append(vectors, result.Embeddings...)
	}
	return vectors, nil
}

// Close destroys the session and its pipeline.
func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	e.pipeline = nil
	return err
}
