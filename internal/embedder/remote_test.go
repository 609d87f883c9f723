package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddingsServer(t *testing.T, dimension int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		require.Equal(t, "POST", r.Method)

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type item struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		resp := struct {
			Data  []item `json:"data"`
			Model string `json:"model"`
		}{Model: req.Model}

		for i := range req.Input {
			vec := make([]float32, dimension)
			vec[0] = float32(i + 1)
			resp.Data = append(resp.Data, item{Embedding: vec, Index: i})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestRemoteEmbedder_Batch(t *testing.T) {
	srv := embeddingsServer(t, 8)
	defer srv.Close()

	r, err := NewRemoteEmbedder(ProviderOpenAI, srv.URL, "test-key", "text-embedding-3-small", nil)
	require.NoError(t, err)
	defer r.Close()

	batch, err := r.GenerateBatch(context.Background(), []string{"one", "two", "three"})
	require.NoError(t, err)
	require.Len(t, batch, 3)

	// Order preserved: one vector per input, by index
	assert.Equal(t, float32(1), batch[0].Vector[0])
	assert.Equal(t, float32(2), batch[1].Vector[0])
	assert.Equal(t, float32(3), batch[2].Vector[0])
	assert.Equal(t, ProviderOpenAI, batch[0].Provider)
}

func TestRemoteEmbedder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	r, err := NewRemoteEmbedder(ProviderOpenAI, srv.URL, "test-key", "text-embedding-3-small", nil)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.GenerateEmbedding(context.Background(), "text")
	assert.ErrorIs(t, err, ErrProviderFailed)
}

func TestRemoteEmbedder_BatchTooLarge(t *testing.T) {
	r, err := NewRemoteEmbedder(ProviderOllama, "", "", "", nil)
	require.NoError(t, err)

	texts := make([]string, MaxBatchSize+1)
	for i := range texts {
		texts[i] = "x"
	}
	_, err = r.GenerateBatch(context.Background(), texts)
	assert.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestRemoteEmbedder_Cache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.5,0.5],"index":0}],"model":"m"}`))
	}))
	defer srv.Close()

	cache := NewCache(10)
	r, err := NewRemoteEmbedder(ProviderOpenAI, srv.URL, "test-key", "text-embedding-3-small", cache)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.GenerateEmbedding(context.Background(), "same text")
	require.NoError(t, err)
	_, err = r.GenerateEmbedding(context.Background(), "same text")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestNewRemoteEmbedder_MissingKey(t *testing.T) {
	_, err := NewRemoteEmbedder(ProviderOpenAI, "", "", "", nil)
	assert.ErrorIs(t, err, ErrNoProviderEnabled)

	_, err = NewRemoteEmbedder("bogus", "", "key", "", nil)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestNewRemoteEmbedder_Defaults(t *testing.T) {
	r, err := NewRemoteEmbedder(ProviderJina, "", "key", "", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultJinaModel, r.Model())
	assert.Equal(t, 1024, r.Dimension())

	o, err := NewRemoteEmbedder(ProviderOllama, "", "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultOllamaModel, o.Model())
	assert.Equal(t, 768, o.Dimension())
}

func TestNew_LocalDefault(t *testing.T) {
	e, err := New(Config{Provider: "local"})
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, e.Provider())

	e, err = New(Config{})
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, e.Provider())
}

func TestDetectProvider(t *testing.T) {
	t.Setenv(EnvProvider, "")
	t.Setenv(EnvOpenAIAPIKey, "")
	t.Setenv(EnvJinaAPIKey, "")
	assert.Equal(t, ProviderLocal, DetectProvider())

	t.Setenv(EnvOpenAIAPIKey, "sk-test")
	assert.Equal(t, ProviderOpenAI, DetectProvider())

	t.Setenv(EnvProvider, "ollama")
	assert.Equal(t, ProviderOllama, DetectProvider())
}
