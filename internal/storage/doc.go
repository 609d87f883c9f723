// Package storage provides SQLite-based persistence for the code index.
//
// The storage layer manages:
//   - File records, raw content, and SHA-256 fingerprints
//   - Extracted symbols
//   - Chunk embeddings (vectors stored as little-endian float32 blobs)
//   - Dependency edges, resolved to file ids where possible
//
// # Database Schema
//
// Tables:
//   - files: one row per indexed path (file_path is unique)
//   - symbols: extracted symbols, cascade-deleted with their file
//   - embeddings: one row per chunk, UNIQUE(file_id, chunk_index)
//   - dependencies: import edges; target_file_id is null when external
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage(".codescope/index.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	err = db.UpsertFile(ctx, &storage.File{
//	    FilePath:    "src/app.js",
//	    Content:     string(content),
//	    ContentHash: sha256.Sum256(content),
//	    SizeBytes:   int64(len(content)),
//	    Language:    "javascript",
//	})
//
// # Transactions
//
// Re-indexing a file replaces all of its derived rows atomically:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	_ = tx.UpsertFile(ctx, file)
//	_ = tx.DeleteSymbolsByFile(ctx, file.ID)
//	_ = tx.DeleteEmbeddingsByFile(ctx, file.ID)
//	_ = tx.DeleteDependenciesByFile(ctx, file.ID)
//	// ... insert fresh symbols, embeddings, dependencies ...
//
//	if err := tx.Commit(); err != nil {
//	    return err
//	}
//
// # Build Tags
//
// The storage package supports two build configurations:
//
// CGO Build (cgo_sqlite tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Requires C compiler
//
//     CGO_ENABLED=1 go build -tags "cgo_sqlite"
//
// Pure Go Build (default):
//
//   - Uses modernc.org/sqlite driver
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build
package storage
