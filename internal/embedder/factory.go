package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables consulted by NewFromEnv
const (
	EnvProvider     = "CODESCOPE_EMBEDDING_PROVIDER"
	EnvBaseURL      = "CODESCOPE_EMBEDDING_URL"
	EnvModel        = "CODESCOPE_EMBEDDING_MODEL"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvJinaAPIKey   = "JINA_API_KEY"
)

// Config holds embedder configuration
type Config struct {
	Provider  string
	BaseURL   string
	APIKey    string
	Model     string
	CacheSize int
}

// New creates an embedder from explicit configuration. Remote providers are
// always wrapped with the local deterministic fallback.
func New(cfg Config) (Embedder, error) {
	cache := NewCache(cfg.CacheSize)

	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case ProviderLocal, "":
		return NewLocalEmbedder(cache), nil
	case ProviderOpenAI, ProviderJina, ProviderOllama:
		remote, err := NewRemoteEmbedder(provider, cfg.BaseURL, cfg.APIKey, cfg.Model, cache)
		if err != nil {
			return nil, err
		}
		return NewFallbackEmbedder(remote, NewLocalEmbedder(cache)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}

// NewFromEnv creates an embedder based on environment variables.
// Priority:
//  1. CODESCOPE_EMBEDDING_PROVIDER (openai, jina, ollama, local)
//  2. Check for API keys: OPENAI_API_KEY, JINA_API_KEY
//  3. Default to local if no API keys found
func NewFromEnv() (Embedder, error) {
	provider := strings.ToLower(os.Getenv(EnvProvider))
	if provider == "" {
		provider = DetectProvider()
	}

	return New(Config{
		Provider: provider,
		BaseURL:  os.Getenv(EnvBaseURL),
		APIKey:   apiKeyFor(provider),
		Model:    os.Getenv(EnvModel),
	})
}

// DetectProvider returns the provider that would be used based on the
// current environment
func DetectProvider() string {
	if provider := strings.ToLower(os.Getenv(EnvProvider)); provider != "" {
		return provider
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	if os.Getenv(EnvJinaAPIKey) != "" {
		return ProviderJina
	}
	return ProviderLocal
}

func apiKeyFor(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return os.Getenv(EnvOpenAIAPIKey)
	case ProviderJina:
		return os.Getenv(EnvJinaAPIKey)
	default:
		return ""
	}
}
