package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Provider names and endpoints. All remote providers speak the
// OpenAI-compatible /embeddings wire format.
const (
	ProviderOpenAI = "openai"
	ProviderJina   = "jina"
	ProviderOllama = "ollama"

	OpenAIBaseURL = "https://api.openai.com/v1"
	JinaBaseURL   = "https://api.jina.ai/v1"
	OllamaBaseURL = "http://localhost:11434/v1"

	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultJinaModel   = "jina-embeddings-v3"
	DefaultOllamaModel = "nomic-embed-text"

	// MaxBatchSize is the largest group sent in one API call
	MaxBatchSize = 100

	// maxInputChars truncates very long chunks to stay inside provider
	// token budgets
	maxInputChars = 8000

	// Retry configuration
	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0
)

// modelDimensions maps known models to their vector width
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"jina-embeddings-v3":     1024,
	"jina-embeddings-v2":     768,
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
}

const defaultRemoteDimension = 1536

// RetryConfig configures exponential backoff retry behavior
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// DefaultRetryConfig returns sensible defaults for API retry
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: MaxRetries,
		BaseDelay:  time.Duration(InitialBackoffMs) * time.Millisecond,
		MaxDelay:   time.Duration(MaxBackoffMs) * time.Millisecond,
		Multiplier: BackoffMultiplier,
	}
}

// retryWithBackoff executes fn with exponential backoff. Retry stops on
// context cancellation, so a stalled remote degrades within bounded time.
func retryWithBackoff[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var lastErr error
	var zero T
	backoff := config.BaseDelay

	for attempt := 0; attempt < config.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if attempt < config.MaxRetries-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * config.Multiplier)
				if backoff > config.MaxDelay {
					backoff = config.MaxDelay
				}
			}
		}
	}

	return zero, lastErr
}

// RemoteEmbedder calls an OpenAI-compatible embeddings endpoint
type RemoteEmbedder struct {
	provider   string
	baseURL    string
	apiKey     string
	model      string
	dimension  int
	httpClient *http.Client
	cache      *Cache
}

// NewRemoteEmbedder creates a remote embedder. baseURL and model fall back
// to the provider's defaults when empty.
func NewRemoteEmbedder(provider, baseURL, apiKey, model string, cache *Cache) (*RemoteEmbedder, error) {
	switch provider {
	case ProviderOpenAI:
		if baseURL == "" {
			baseURL = OpenAIBaseURL
		}
		if model == "" {
			model = DefaultOpenAIModel
		}
		if apiKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY not set", ErrNoProviderEnabled)
		}
	case ProviderJina:
		if baseURL == "" {
			baseURL = JinaBaseURL
		}
		if model == "" {
			model = DefaultJinaModel
		}
		if apiKey == "" {
			return nil, fmt.Errorf("%w: JINA_API_KEY not set", ErrNoProviderEnabled)
		}
	case ProviderOllama:
		// Local Ollama needs no key
		if baseURL == "" {
			baseURL = OllamaBaseURL
		}
		if model == "" {
			model = DefaultOllamaModel
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	dimension, ok := modelDimensions[model]
	if !ok {
		dimension = defaultRemoteDimension
	}

	return &RemoteEmbedder{
		provider:  provider,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		apiKey:    apiKey,
		model:     model,
		dimension: dimension,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: cache,
	}, nil
}

func (r *RemoteEmbedder) GenerateEmbedding(ctx context.Context, text string) (*Embedding, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	hash := ComputeHash(text)
	if r.cache != nil {
		if emb, ok := r.cache.Get(hash); ok {
			return emb, nil
		}
	}

	embeddings, err := r.GenerateBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", ErrProviderFailed)
	}
	return embeddings[0], nil
}

func (r *RemoteEmbedder) GenerateBatch(ctx context.Context, texts []string) ([]*Embedding, error) {
	if err := validateBatch(texts); err != nil {
		return nil, err
	}
	if len(texts) > MaxBatchSize {
		return nil, fmt.Errorf("%w: max %d texts allowed", ErrBatchTooLarge, MaxBatchSize)
	}

	config := DefaultRetryConfig()
	embeddings, err := retryWithBackoff(ctx, config, func() ([]*Embedding, error) {
		return r.callAPI(ctx, texts)
	})
	if err != nil {
		return nil, fmt.Errorf("%w after %d retries: %v", ErrProviderFailed, MaxRetries, err)
	}

	if r.cache != nil {
		for i, emb := range embeddings {
			hash := ComputeHash(texts[i])
			emb.Hash = hash
			r.cache.Set(hash, emb)
		}
	}

	return embeddings, nil
}

func (r *RemoteEmbedder) callAPI(ctx context.Context, texts []string) ([]*Embedding, error) {
	input := make([]string, len(texts))
	for i, text := range texts {
		input[i] = truncateText(text, maxInputChars)
	}

	reqBody := map[string]interface{}{
		"input": input,
		"model": r.model,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
		Model string `json:"model"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(apiResp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs",
			ErrProviderFailed, len(apiResp.Data), len(texts))
	}

	embeddings := make([]*Embedding, len(apiResp.Data))
	for _, data := range apiResp.Data {
		if data.Index < 0 || data.Index >= len(embeddings) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", ErrProviderFailed, data.Index)
		}
		embeddings[data.Index] = &Embedding{
			Vector:    data.Embedding,
			Dimension: len(data.Embedding),
			Provider:  r.provider,
			Model:     r.model,
		}
	}

	return embeddings, nil
}

func (r *RemoteEmbedder) Dimension() int {
	return r.dimension
}

func (r *RemoteEmbedder) Provider() string {
	return r.provider
}

func (r *RemoteEmbedder) Model() string {
	return r.model
}

func (r *RemoteEmbedder) Close() error {
	r.httpClient.CloseIdleConnections()
	return nil
}

func truncateText(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
