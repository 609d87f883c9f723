package embedder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalEmbedder_Deterministic(t *testing.T) {
	l := NewLocalEmbedder(nil)
	ctx := context.Background()

	a, err := l.GenerateEmbedding(ctx, "function add(a, b) { return a + b; }")
	require.NoError(t, err)
	b, err := l.GenerateEmbedding(ctx, "function add(a, b) { return a + b; }")
	require.NoError(t, err)

	assert.Equal(t, a.Vector, b.Vector)
	assert.Len(t, a.Vector, LocalDimension)
}

func TestLocalEmbedder_DifferentTextsDiffer(t *testing.T) {
	l := NewLocalEmbedder(nil)
	ctx := context.Background()

	a, err := l.GenerateEmbedding(ctx, "parse the configuration file")
	require.NoError(t, err)
	b, err := l.GenerateEmbedding(ctx, "open a database connection")
	require.NoError(t, err)

	assert.NotEqual(t, a.Vector, b.Vector)
}

func TestLocalEmbedder_UnitLength(t *testing.T) {
	l := NewLocalEmbedder(nil)
	emb, err := l.GenerateEmbedding(context.Background(), "some code text")
	require.NoError(t, err)

	var sum float64
	for _, v := range emb.Vector {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
}

func TestLocalEmbedder_EmptyText(t *testing.T) {
	l := NewLocalEmbedder(nil)
	_, err := l.GenerateEmbedding(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestLocalEmbedder_BatchOrder(t *testing.T) {
	l := NewLocalEmbedder(nil)
	ctx := context.Background()
	texts := []string{"alpha beta", "gamma delta", "epsilon zeta"}

	batch, err := l.GenerateBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, batch, len(texts))

	for i, text := range texts {
		single, err := l.GenerateEmbedding(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single.Vector, batch[i].Vector, "index %d", i)
	}
}

func TestLocalEmbedder_Cache(t *testing.T) {
	cache := NewCache(10)
	l := NewLocalEmbedder(cache)
	ctx := context.Background()

	first, err := l.GenerateEmbedding(ctx, "cached text")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Size())

	second, err := l.GenerateEmbedding(ctx, "cached text")
	require.NoError(t, err)
	assert.Equal(t, first.Vector, second.Vector)

	// Cached values are copies: mutating one result must not leak back
	second.Vector[0] = 99
	third, err := l.GenerateEmbedding(ctx, "cached text")
	require.NoError(t, err)
	assert.Equal(t, first.Vector, third.Vector)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)

	// Mismatched lengths yield 0, not an error
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, []float32{1}))

	// Zero vectors yield 0
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func TestCosineSimilarity_Bounds(t *testing.T) {
	a := localEmbed("the quick brown fox")
	b := localEmbed("jumps over the lazy dog")
	sim := CosineSimilarity(a, b)
	assert.GreaterOrEqual(t, sim, -1.0)
	assert.LessOrEqual(t, sim, 1.0)
}

func TestEuclideanDistance(t *testing.T) {
	assert.InDelta(t, 5.0, EuclideanDistance([]float32{0, 0}, []float32{3, 4}), 1e-9)
	assert.InDelta(t, 0.0, EuclideanDistance([]float32{1, 2}, []float32{1, 2}), 1e-9)
	assert.True(t, EuclideanDistance([]float32{1}, []float32{1, 2}) > 1e300)
}

func TestNormalizeVector(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	zero := NormalizeVector([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}

// failingEmbedder always errors, to exercise the fallback path
type failingEmbedder struct{}

func (failingEmbedder) GenerateEmbedding(ctx context.Context, text string) (*Embedding, error) {
	return nil, errors.New("remote unavailable")
}

func (failingEmbedder) GenerateBatch(ctx context.Context, texts []string) ([]*Embedding, error) {
	return nil, errors.New("remote unavailable")
}

func (failingEmbedder) Dimension() int   { return 1536 }
func (failingEmbedder) Provider() string { return "openai" }
func (failingEmbedder) Model() string    { return "text-embedding-3-small" }
func (failingEmbedder) Close() error     { return nil }

func TestFallbackEmbedder_SingleFallsBack(t *testing.T) {
	f := NewFallbackEmbedder(failingEmbedder{}, NewLocalEmbedder(nil))

	emb, err := f.GenerateEmbedding(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, emb.Provider)
	assert.Len(t, emb.Vector, LocalDimension)
}

func TestFallbackEmbedder_BatchFallsBack(t *testing.T) {
	f := NewFallbackEmbedder(failingEmbedder{}, NewLocalEmbedder(nil))

	batch, err := f.GenerateBatch(context.Background(), []string{"a1 b2", "c3 d4"})
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, localEmbed("a1 b2"), batch[0].Vector)
	assert.Equal(t, localEmbed("c3 d4"), batch[1].Vector)
}

func TestValidateBatch(t *testing.T) {
	assert.Error(t, validateBatch(nil))
	assert.Error(t, validateBatch([]string{"ok", ""}))
	assert.NoError(t, validateBatch([]string{"ok"}))
}

func TestComputeHash(t *testing.T) {
	assert.Equal(t, ComputeHash("abc"), ComputeHash("abc"))
	assert.NotEqual(t, ComputeHash("abc"), ComputeHash("abd"))
	assert.Len(t, ComputeHash("abc"), 64)
}
