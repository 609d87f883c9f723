// Package searcher serves retrieval queries over the indexed store:
// semantic code search, exact symbol lookup, reference finding, dependency
// analysis, and context assembly.
//
// Semantic search embeds the query and ranks every stored chunk by cosine
// similarity, keeping hits at or above a threshold (0.7 by default) in
// stable descending order. Results for identical queries are cached in a
// bounded LRU; InvalidateCache drops the cache after re-indexing.
//
// The error policy is uniform: empty or malformed input returns
// ErrInvalidQuery, and any internal failure (store, embedding) is logged
// and yields an empty result instead of an error. Collaborators that
// forward results to a protocol surface never need failure branches beyond
// input validation.
package searcher
