// Package indexer walks a repository and turns source files into stored
// index rows: file content and fingerprint, extracted symbols and
// dependencies, and embedded chunks.
//
// Each file runs through one pipeline: read, extract, chunk, embed, then a
// single short transaction that replaces every derived row for that file.
// Readers of the store never observe a partially indexed file. Full scans
// run the pipelines on a bounded worker pool and tolerate per-file
// failures; a second scan started while one is running fails fast with
// ErrIndexInProgress.
//
//	idx, err := indexer.New(store, emb, indexer.Config{Root: repoRoot})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stats, err := idx.IndexRepository(ctx, false)
//
// Unchanged files (stored mod time not older than the filesystem's) are
// skipped unless the scan is forced. Files above the size ceiling and
// paths matched by the ignore rules (defaults plus .codescopeignore) are
// skipped always.
//
// Local imports are resolved to file IDs against the store; a resolution
// pass at the end of each full scan retries imports whose targets were
// indexed later in the same run.
package indexer
