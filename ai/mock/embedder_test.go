package mock

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	embedder := NewMockEmbedderWithDimension(16)
	ctx := context.Background()

	first, err := embedder.EmbedTexts(ctx, []string{"a", "b", "a"})
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, first[0], first[2])
	assert.NotEqual(t, first[0], first[1])

	single, err := embedder.EmbedText(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, first[1], single)
}

func TestMockEmbedder_UnitLength(t *testing.T) {
	v := Vector("Intro to Go Learn the basics", DefaultDimension)
	require.Len(t, v, DefaultDimension)

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestMockEmbedder_RecordsCalls(t *testing.T) {
	embedder := NewMockEmbedder()
	ctx := context.Background()

	_, _ = embedder.EmbedTexts(ctx, []string{"x", "y"})
	_, _ = embedder.EmbedText(ctx, "z")

	assert.Equal(t, 2, embedder.CallCount())
	assert.Equal(t, []string{"x", "y", "z"}, embedder.Texts())

	embedder.Reset()
	assert.Zero(t, embedder.CallCount())
	assert.Empty(t, embedder.Texts())
}

func TestMockEmbedder_InjectedFailure(t *testing.T) {
	embedder := NewMockEmbedder()
	boom := errors.New("boom")
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, boom
	}

	_, err := embedder.EmbedTexts(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, boom)
}
