package embedder

import (
	"context"
	"log"
)

// FallbackEmbedder wraps a remote primary with the local deterministic
// embedder. Any primary failure degrades to the local path; batches fall
// back per-group, so one failed group never aborts the rest.
type FallbackEmbedder struct {
	primary Embedder
	local   *LocalEmbedder
}

// NewFallbackEmbedder creates the fallback chain
func NewFallbackEmbedder(primary Embedder, local *LocalEmbedder) *FallbackEmbedder {
	return &FallbackEmbedder{primary: primary, local: local}
}

func (f *FallbackEmbedder) GenerateEmbedding(ctx context.Context, text string) (*Embedding, error) {
	emb, err := f.primary.GenerateEmbedding(ctx, text)
	if err == nil {
		return emb, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	log.Printf("embedder: %s provider failed, using local fallback: %v", f.primary.Provider(), err)
	return f.local.GenerateEmbedding(ctx, text)
}

func (f *FallbackEmbedder) GenerateBatch(ctx context.Context, texts []string) ([]*Embedding, error) {
	if err := validateBatch(texts); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, 0, len(texts))
	for start := 0; start < len(texts); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		group := texts[start:end]

		batch, err := f.primary.GenerateBatch(ctx, group)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("embedder: %s provider failed for batch of %d, using local fallback: %v",
				f.primary.Provider(), len(group), err)
			batch, err = f.local.GenerateBatch(ctx, group)
			if err != nil {
				return nil, err
			}
		}
		embeddings = append(embeddings, batch...)
	}

	return embeddings, nil
}

// Dimension reports the primary's dimension: fallback vectors intentionally
// differ in width, and mismatched comparisons score 0 rather than erroring
func (f *FallbackEmbedder) Dimension() int {
	return f.primary.Dimension()
}

func (f *FallbackEmbedder) Provider() string {
	return f.primary.Provider()
}

func (f *FallbackEmbedder) Model() string {
	return f.primary.Model()
}

func (f *FallbackEmbedder) Close() error {
	_ = f.local.Close()
	return f.primary.Close()
}
