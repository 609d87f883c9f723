package embedder

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const (
	// ProviderLocal names the deterministic in-process provider
	ProviderLocal = "local"

	// LocalDimension is the local embedding dimension
	LocalDimension = 384

	// localHashCount is how many hashed indices each term scatters into
	localHashCount = 3

	localModel = "hashed-tf-v1"
)

// LocalEmbedder produces deterministic embeddings without any model or
// network: term frequencies are log-scaled and scattered into a fixed-length
// vector through multiple hash projections, then L2-normalized. Identical
// text always yields an identical vector, which the caching and test
// invariants rely on.
type LocalEmbedder struct {
	cache *Cache
}

// NewLocalEmbedder creates a local embedder
func NewLocalEmbedder(cache *Cache) *LocalEmbedder {
	return &LocalEmbedder{cache: cache}
}

func (l *LocalEmbedder) GenerateEmbedding(ctx context.Context, text string) (*Embedding, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	hash := ComputeHash(text)
	if l.cache != nil {
		if emb, ok := l.cache.Get(hash); ok {
			return emb, nil
		}
	}

	emb := &Embedding{
		Vector:    localEmbed(text),
		Dimension: LocalDimension,
		Provider:  ProviderLocal,
		Model:     localModel,
		Hash:      hash,
	}

	if l.cache != nil {
		l.cache.Set(hash, emb)
	}
	return emb, nil
}

func (l *LocalEmbedder) GenerateBatch(ctx context.Context, texts []string) ([]*Embedding, error) {
	if err := validateBatch(texts); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, len(texts))
	for i, text := range texts {
		emb, err := l.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

func (l *LocalEmbedder) Dimension() int {
	return LocalDimension
}

func (l *LocalEmbedder) Provider() string {
	return ProviderLocal
}

func (l *LocalEmbedder) Model() string {
	return localModel
}

func (l *LocalEmbedder) Close() error {
	return nil
}

// localEmbed computes the deterministic vector for a text
func localEmbed(text string) []float32 {
	vector := make([]float32, LocalDimension)

	freq := make(map[string]int)
	for _, token := range tokenize(text) {
		freq[token]++
	}
	if len(freq) == 0 {
		return vector
	}

	for token, count := range freq {
		weight := float32(1 + math.Log(float64(count)))
		for seed := 0; seed < localHashCount; seed++ {
			h := hashToken(token, byte(seed))
			idx := int(h % LocalDimension)
			// A hash bit picks the sign so unrelated terms can cancel
			// instead of all vectors drifting positive
			if h&(1<<31) != 0 {
				vector[idx] -= weight
			} else {
				vector[idx] += weight
			}
		}
	}

	return NormalizeVector(vector)
}

func hashToken(token string, seed byte) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte{seed})
	_, _ = h.Write([]byte(token))
	return h.Sum32()
}

// tokenize lowercases and splits text on non-alphanumeric runs
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}
