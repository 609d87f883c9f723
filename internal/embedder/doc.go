// Package embedder generates vector embeddings for code chunks and queries.
//
// Three providers exist behind one interface:
//
//   - RemoteEmbedder calls an OpenAI-compatible /embeddings endpoint
//     (OpenAI, Jina, or a local Ollama server) with bounded retry and
//     exponential backoff.
//   - LocalEmbedder computes a deterministic 384-dimension vector in
//     process: log-scaled term frequencies scattered through multiple hash
//     projections, L2-normalized. Same text always yields the same vector.
//   - FallbackEmbedder chains a remote primary with the local embedder so
//     a network or quota failure degrades to the local path instead of
//     failing the pipeline.
//
// # Usage
//
//	emb, err := embedder.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	vec, err := emb.GenerateEmbedding(ctx, embedder.PreprocessCode(text, lang))
//
// Providers are selected via CODESCOPE_EMBEDDING_PROVIDER (openai, jina,
// ollama, local) or auto-detected from OPENAI_API_KEY / JINA_API_KEY,
// defaulting to local.
//
// The package also carries the pure numeric utilities used by retrieval:
// CosineSimilarity returns 0 and EuclideanDistance returns +Inf on length
// mismatch, so callers never branch on vector-width errors.
package embedder
