package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"codescope/internal/chunker"
	"codescope/internal/embedder"
	"codescope/internal/extractor"
	"codescope/internal/storage"
	"codescope/pkg/types"
)

var (
	// ErrIndexInProgress is returned when a full scan is requested while
	// another one holds the index lock.
	ErrIndexInProgress = errors.New("indexing already in progress")

	// ErrFileTooLarge is returned for files above the size ceiling
	ErrFileTooLarge = errors.New("file exceeds size limit")
)

const (
	// DefaultWorkers is the number of concurrent file pipelines
	DefaultWorkers = 4

	// DefaultMaxFileSize is the per-file size ceiling (1 MiB)
	DefaultMaxFileSize = 1 << 20
)

// extraTextExtensions are indexed for retrieval even though no symbols or
// dependencies are extracted from them.
var extraTextExtensions = map[string]bool{
	".json":     true,
	".yaml":     true,
	".yml":      true,
	".toml":     true,
	".md":       true,
	".markdown": true,
	".txt":      true,
	".html":     true,
	".css":      true,
	".scss":     true,
	".sh":       true,
	".sql":      true,
	".xml":      true,
	".ini":      true,
	".cfg":      true,
}

// Config holds indexer configuration
type Config struct {
	// Root is the absolute path of the repository to index
	Root string

	// Workers bounds pipeline concurrency. Zero means DefaultWorkers.
	Workers int

	// MaxFileSize is the per-file ceiling in bytes. Zero means
	// DefaultMaxFileSize.
	MaxFileSize int64

	// MaxChunkSize overrides the chunker's character budget when > 0
	MaxChunkSize int

	// IgnorePatterns are added on top of the defaults and the
	// repository's ignore file.
	IgnorePatterns []string
}

// Indexer drives the read -> extract -> chunk -> embed -> store pipeline
// for a single repository.
type Indexer struct {
	store       storage.Storage
	extractor   *extractor.Extractor
	chunker     *chunker.Chunker
	embedder    embedder.Embedder
	ignore      *IgnoreSet
	root        string
	workers     int
	maxFileSize int64
	lock        IndexLock
}

// New creates an Indexer over an open store and embedder. The repository's
// ignore file is read once at construction.
func New(store storage.Storage, emb embedder.Embedder, cfg Config) (*Indexer, error) {
	if cfg.Root == "" {
		return nil, errors.New("repository root is required")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", cfg.Root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	ignore, err := LoadIgnoreSet(root, cfg.IgnorePatterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load ignore rules: %w", err)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	maxFileSize := cfg.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	ck := chunker.New()
	if cfg.MaxChunkSize > 0 {
		ck = chunker.NewWithSize(cfg.MaxChunkSize)
	}

	return &Indexer{
		store:       store,
		extractor:   extractor.New(),
		chunker:     ck,
		embedder:    emb,
		ignore:      ignore,
		root:        root,
		workers:     workers,
		maxFileSize: maxFileSize,
	}, nil
}

// Root returns the absolute repository root
func (idx *Indexer) Root() string {
	return idx.root
}

// Ignored reports whether a repository-relative path is excluded from
// indexing. The watcher shares this decision.
func (idx *Indexer) Ignored(relPath string) bool {
	return idx.ignore.Match(relPath) || !indexable(relPath)
}

// IgnoredDir reports whether a repository-relative directory is excluded
// entirely, so watchers can skip registering it.
func (idx *Indexer) IgnoredDir(relPath string) bool {
	return idx.ignore.MatchDir(relPath)
}

// IndexRepository walks the repository and indexes every indexable file.
// With force false, files whose stored mod time is not older than the
// filesystem's are skipped. Per-file failures are recorded in the returned
// stats and do not abort the scan; only context cancellation does, and even
// then the partial stats are returned.
func (idx *Indexer) IndexRepository(ctx context.Context, force bool) (*types.IndexStats, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexInProgress
	}
	defer idx.lock.Release()

	start := time.Now()
	stats := &types.IndexStats{}

	files, err := idx.discoverFiles()
	if err != nil {
		stats.Duration = time.Since(start)
		return stats, fmt.Errorf("failed to walk repository: %w", err)
	}

	cache := newPathCache(idx.store)
	var processed, skipped, failed, symbols, chunks atomic.Int64
	var mu sync.Mutex // guards stats.Errors

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workers)
	for _, relPath := range files {
		g.Go(func() error {
			// Cancellation is honored between file units, never inside one
			if err := gctx.Err(); err != nil {
				return err
			}
			skip, err := idx.shouldSkip(gctx, relPath, force)
			if err == nil && skip {
				skipped.Add(1)
				return nil
			}

			ns, nc, err := idx.indexFile(gctx, relPath, cache)
			if err != nil {
				if errors.Is(err, ErrFileTooLarge) {
					skipped.Add(1)
					return nil
				}
				failed.Add(1)
				mu.Lock()
				stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", relPath, err))
				mu.Unlock()
				log.Printf("index: failed to index %s: %v", relPath, err)
				return nil
			}
			processed.Add(1)
			symbols.Add(int64(ns))
			chunks.Add(int64(nc))
			return nil
		})
	}
	err = g.Wait()

	if err == nil {
		// Second pass: files indexed before their import targets now
		// resolve against the complete store.
		if rerr := idx.resolvePendingTargets(ctx); rerr != nil {
			log.Printf("index: dependency resolution pass failed: %v", rerr)
		}
	}

	stats.FilesProcessed = int(processed.Load())
	stats.FilesSkipped = int(skipped.Load())
	stats.FilesFailed = int(failed.Load())
	stats.Symbols = int(symbols.Load())
	stats.Chunks = int(chunks.Load())
	stats.Duration = time.Since(start)
	return stats, err
}

// IndexFile indexes a single repository-relative path through the full
// pipeline, replacing any previous rows for that path atomically.
func (idx *Indexer) IndexFile(ctx context.Context, relPath string) error {
	_, _, err := idx.indexFile(ctx, relPath, newPathCache(idx.store))
	return err
}

// UpdateFile re-indexes a changed file. Same pipeline as IndexFile; the
// name exists for callers reacting to filesystem events.
func (idx *Indexer) UpdateFile(ctx context.Context, relPath string) error {
	return idx.IndexFile(ctx, relPath)
}

// RemoveFile drops a file and all its derived rows. Removing a path that
// was never indexed is not an error.
func (idx *Indexer) RemoveFile(ctx context.Context, relPath string) error {
	err := idx.store.DeleteFile(ctx, relPath)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// discoverFiles walks the tree and returns slash-form relative paths of
// every indexable file, pruning ignored directories.
func (idx *Indexer) discoverFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(idx.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, rerr := filepath.Rel(idx.root, p)
		if rerr != nil {
			return rerr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if idx.ignore.MatchDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if idx.ignore.Match(rel) || !indexable(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	return files, err
}

// shouldSkip reports whether an unchanged file can be skipped. Stat errors
// fall through to the pipeline so they surface as per-file failures.
func (idx *Indexer) shouldSkip(ctx context.Context, relPath string, force bool) (bool, error) {
	if force {
		return false, nil
	}
	info, err := os.Stat(filepath.Join(idx.root, filepath.FromSlash(relPath)))
	if err != nil {
		return false, nil
	}
	stored, err := idx.store.GetFile(ctx, relPath)
	if err != nil {
		return false, nil
	}
	return !info.ModTime().After(stored.ModTime), nil
}

// indexFile runs the full pipeline for one file. All reads, extraction,
// chunking, and embedding happen before the transaction opens; the
// transaction itself is a short delete-then-insert, so readers never see a
// partially indexed file.
func (idx *Indexer) indexFile(ctx context.Context, relPath string, cache *pathCache) (int, int, error) {
	abs := filepath.Join(idx.root, filepath.FromSlash(relPath))
	info, err := os.Stat(abs)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() > idx.maxFileSize {
		return 0, 0, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, relPath, info.Size())
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read file: %w", err)
	}
	content := string(data)
	lang := types.DetectLanguage(relPath)

	var symbols []types.Symbol
	var deps []types.Dependency
	if idx.extractor.IsSupported(lang) {
		symbols, err = idx.extractor.ExtractSymbols(content, lang)
		if err != nil {
			return 0, 0, fmt.Errorf("symbol extraction failed: %w", err)
		}
		deps, err = idx.extractor.ExtractDependencies(content, lang, relPath)
		if err != nil {
			return 0, 0, fmt.Errorf("dependency extraction failed: %w", err)
		}
	}

	chunks := idx.chunker.Chunk(content)
	vectors := idx.embedChunks(ctx, relPath, lang, chunks)

	targets := make([]*int64, len(deps))
	for i, d := range deps {
		targets[i] = resolveTarget(ctx, cache, relPath, d, lang)
	}

	tx, err := idx.store.BeginTx(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	file := &storage.File{
		FilePath:    relPath,
		Content:     content,
		ContentHash: sha256.Sum256(data),
		SizeBytes:   info.Size(),
		Language:    string(lang),
		ModTime:     info.ModTime(),
	}
	if err := tx.UpsertFile(ctx, file); err != nil {
		return 0, 0, err
	}
	if err := tx.DeleteSymbolsByFile(ctx, file.ID); err != nil {
		return 0, 0, err
	}
	if err := tx.DeleteEmbeddingsByFile(ctx, file.ID); err != nil {
		return 0, 0, err
	}
	if err := tx.DeleteDependenciesByFile(ctx, file.ID); err != nil {
		return 0, 0, err
	}

	stored := make([]*storage.Symbol, 0, len(symbols))
	for _, sym := range symbols {
		rec := storage.FromTypesSymbol(sym, file.ID)
		if err := tx.InsertSymbol(ctx, rec); err != nil {
			return 0, 0, err
		}
		stored = append(stored, rec)
	}

	inserted := 0
	if vectors != nil {
		for i, ch := range chunks {
			emb := &storage.Embedding{
				FileID:     file.ID,
				SymbolID:   coveringSymbolID(ch, stored),
				ChunkIndex: ch.Index,
				Content:    ch.Content,
				Vector:     vectors[i],
				Metadata: storage.ChunkMetadata{
					Language:  string(lang),
					StartLine: ch.StartLine,
					EndLine:   ch.EndLine,
					Kind:      string(ch.Kind),
				},
			}
			if err := tx.InsertEmbedding(ctx, emb); err != nil {
				return 0, 0, err
			}
			inserted++
		}
	}

	for i, d := range deps {
		rec := storage.FromTypesDependency(d, file.ID)
		rec.TargetFileID = targets[i]
		if err := tx.InsertDependency(ctx, rec); err != nil {
			return 0, 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit: %w", err)
	}
	cache.put(relPath, file.ID)
	return len(symbols), inserted, nil
}

// embedChunks embeds chunk contents in batches. Embedding is best-effort:
// any failure is logged and nil is returned, and the file is indexed
// without vectors.
func (idx *Indexer) embedChunks(ctx context.Context, relPath string, lang types.Language, chunks []types.Chunk) [][]float32 {
	if len(chunks) == 0 {
		return [][]float32{}
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		text := embedder.PreprocessCode(ch.Content, lang)
		if text == "" {
			text = ch.Content
		}
		texts[i] = text
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedder.MaxBatchSize {
		end := min(start+embedder.MaxBatchSize, len(texts))
		batch, err := idx.embedder.GenerateBatch(ctx, texts[start:end])
		if err != nil {
			log.Printf("index: embedding failed for %s: %v", relPath, err)
			return nil
		}
		for _, e := range batch {
			vectors = append(vectors, e.Vector)
		}
	}
	return vectors
}

// coveringSymbolID returns the ID of the smallest symbol whose line span
// contains the chunk, or nil when no symbol covers it.
func coveringSymbolID(ch types.Chunk, symbols []*storage.Symbol) *int64 {
	var best *storage.Symbol
	for _, sym := range symbols {
		if sym.StartLine > ch.StartLine || sym.EndLine < ch.EndLine {
			continue
		}
		if best == nil || sym.EndLine-sym.StartLine < best.EndLine-best.StartLine {
			best = sym
		}
	}
	if best == nil {
		return nil
	}
	id := best.ID
	return &id
}

// resolvePendingTargets retries target resolution for local dependencies
// left unresolved by scan ordering. Files whose targets were indexed later
// in the same run get their rows rewritten.
func (idx *Indexer) resolvePendingTargets(ctx context.Context) error {
	files, err := idx.store.ListFiles(ctx)
	if err != nil {
		return err
	}
	cache := newPathCache(idx.store)

	for _, f := range files {
		deps, err := idx.store.DependenciesByFile(ctx, f.ID)
		if err != nil {
			return err
		}
		changed := false
		for _, d := range deps {
			if d.IsExternal || d.TargetFileID != nil {
				continue
			}
			td := types.Dependency{ImportPath: d.ImportPath}
			if id := resolveTarget(ctx, cache, f.FilePath, td, types.Language(f.Language)); id != nil {
				d.TargetFileID = id
				changed = true
			}
		}
		if !changed {
			continue
		}

		tx, err := idx.store.BeginTx(ctx)
		if err != nil {
			return err
		}
		if err := rewriteDependencies(ctx, tx, f.ID, deps); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func rewriteDependencies(ctx context.Context, tx storage.Tx, fileID int64, deps []*storage.Dependency) error {
	if err := tx.DeleteDependenciesByFile(ctx, fileID); err != nil {
		return err
	}
	for _, d := range deps {
		d.ID = 0
		if err := tx.InsertDependency(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// indexable reports whether a path is worth indexing at all: a supported
// language, or one of the plain-text extensions.
func indexable(relPath string) bool {
	if types.DetectLanguage(relPath) != types.LangUnknown {
		return true
	}
	return extraTextExtensions[strings.ToLower(filepath.Ext(relPath))]
}
