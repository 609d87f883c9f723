package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"codescope/internal/embedder"
	"codescope/internal/storage"
	"codescope/pkg/types"
)

// ErrInvalidQuery is returned for empty or malformed query input. It is the
// only error the retrieval operations surface; internal failures degrade to
// empty results.
var ErrInvalidQuery = errors.New("invalid query")

const (
	// DefaultLimit is the result cap applied when none is given
	DefaultLimit = 10

	// MaxLimit bounds any requested result cap
	MaxLimit = 100

	// DefaultThreshold is the minimum cosine similarity for a search hit
	DefaultThreshold = 0.7

	// DefaultContextSize is the chunk count for GetContext when none is given
	DefaultContextSize = 5

	// MaxContextSize bounds the chunk count for GetContext
	MaxContextSize = 50

	cacheSize = 1000
	cacheTTL  = time.Hour
)

// SearchOptions tunes SearchCode
type SearchOptions struct {
	// Limit caps the number of results. Zero means DefaultLimit.
	Limit int

	// FileExtensions restricts hits to files with these extensions
	// (".go", ".py"). Empty means no restriction.
	FileExtensions []string

	// Threshold overrides the minimum similarity. Zero means
	// DefaultThreshold; a negative value disables the cutoff entirely.
	Threshold float64
}

type cacheEntry struct {
	results   []types.SearchResult
	expiresAt time.Time
}

// Searcher serves retrieval queries over the store. All operations follow
// one error policy: invalid input returns ErrInvalidQuery, any internal
// failure is logged and yields an empty result.
type Searcher struct {
	store    storage.Storage
	embedder embedder.Embedder
	cache    *lru.Cache[[32]byte, *cacheEntry]
	cacheMu  sync.RWMutex
}

// New creates a Searcher over an open store and embedder
func New(store storage.Storage, emb embedder.Embedder) *Searcher {
	cache, err := lru.New[[32]byte, *cacheEntry](cacheSize)
	if err != nil {
		// Only reachable with a non-positive size constant
		panic(fmt.Sprintf("failed to create query cache: %v", err))
	}
	return &Searcher{
		store:    store,
		embedder: emb,
		cache:    cache,
	}
}

// InvalidateCache drops all cached query results. Called after any
// re-indexing, since stored vectors may have changed.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// SearchCode ranks stored chunks by cosine similarity against the embedded
// query and returns hits at or above the threshold, best first. Ties keep
// their store order, so repeated queries rank identically.
func (s *Searcher) SearchCode(ctx context.Context, query string, opts SearchOptions) ([]types.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query cannot be empty", ErrInvalidQuery)
	}
	normalizeOptions(&opts)

	key := queryHash(query, opts)
	if cached, ok := s.cachedResults(key); ok {
		return cached, nil
	}

	qe, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		log.Printf("search: failed to embed query: %v", err)
		return []types.SearchResult{}, nil
	}

	embeddings, err := s.store.AllEmbeddings(ctx)
	if err != nil {
		log.Printf("search: failed to load embeddings: %v", err)
		return []types.SearchResult{}, nil
	}

	res := newResolver(s.store)

	type scored struct {
		emb   *storage.Embedding
		score float64
	}
	hits := make([]scored, 0)
	for _, e := range embeddings {
		score := embedder.CosineSimilarity(qe.Vector, e.Vector)
		if score < opts.Threshold {
			continue
		}
		file, err := res.fileByID(ctx, e.FileID)
		if err != nil {
			continue
		}
		if !extensionAllowed(file.FilePath, opts.FileExtensions) {
			continue
		}
		hits = append(hits, scored{emb: e, score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if len(hits) > opts.Limit {
		hits = hits[:opts.Limit]
	}

	results := make([]types.SearchResult, 0, len(hits))
	for _, h := range hits {
		file, err := res.fileByID(ctx, h.emb.FileID)
		if err != nil {
			continue
		}
		results = append(results, types.SearchResult{
			File:       fileInfo(file),
			Symbol:     res.symbolByID(ctx, h.emb.FileID, h.emb.SymbolID),
			ChunkIndex: h.emb.ChunkIndex,
			Score:      h.score,
			Snippet:    h.emb.Content,
			StartLine:  h.emb.Metadata.StartLine,
			EndLine:    h.emb.Metadata.EndLine,
			Matches:    matchSpans(h.emb.Content, query),
		})
	}

	s.storeResults(key, results)
	return results, nil
}

// FindSymbol looks up symbols by exact name. A non-empty kind restricts the
// lookup to that kind and the matches score 1.2; without a kind every match
// scores 1.0. Results are sorted by score descending.
func (s *Searcher) FindSymbol(ctx context.Context, name, kind string) ([]types.SymbolMatch, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: symbol name cannot be empty", ErrInvalidQuery)
	}

	symbols, err := s.store.FindSymbolsByName(ctx, name, kind)
	if err != nil {
		log.Printf("search: symbol lookup failed for %q: %v", name, err)
		return []types.SymbolMatch{}, nil
	}

	score := 1.0
	if kind != "" {
		score = 1.2
	}
	res := newResolver(s.store)
	matches := make([]types.SymbolMatch, 0, len(symbols))
	for _, sym := range symbols {
		file, err := res.fileByID(ctx, sym.FileID)
		if err != nil {
			continue
		}
		matches = append(matches, types.SymbolMatch{
			Symbol:   sym.ToTypesSymbol(),
			FilePath: file.FilePath,
			Score:    score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches, nil
}

// GetReferences returns the definitions of a symbol name plus every
// whole-word textual occurrence across indexed file contents. Occurrences
// inside a same-file definition's line range are dropped so the definition
// is reported once, not once per body line. The scan is linear over stored
// contents; cost grows with files times lines.
func (s *Searcher) GetReferences(ctx context.Context, name, filePath string) ([]types.Reference, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: symbol name cannot be empty", ErrInvalidQuery)
	}

	symbols, err := s.store.FindSymbolsByName(ctx, name, "")
	if err != nil {
		log.Printf("search: reference lookup failed for %q: %v", name, err)
		return []types.Reference{}, nil
	}

	res := newResolver(s.store)

	// Definition line ranges per file, to suppress textual self-matches
	defRanges := make(map[int64][][2]int)
	refs := make([]types.Reference, 0, len(symbols))
	for _, sym := range symbols {
		file, err := res.fileByID(ctx, sym.FileID)
		if err != nil {
			continue
		}
		defRanges[sym.FileID] = append(defRanges[sym.FileID], [2]int{sym.StartLine, sym.EndLine})
		if filePath != "" && file.FilePath != filePath {
			continue
		}
		refs = append(refs, types.Reference{
			FilePath:     file.FilePath,
			Line:         sym.StartLine,
			Column:       sym.StartCol,
			Text:         sym.Definition,
			IsDefinition: true,
		})
	}

	files, err := s.listScanFiles(ctx, filePath)
	if err != nil {
		log.Printf("search: reference scan failed for %q: %v", name, err)
		return refs, nil
	}

	for _, file := range files {
		ranges := defRanges[file.ID]
		lines := strings.Split(file.Content, "\n")
		for i, line := range lines {
			lineNo := i + 1
			if withinRanges(lineNo, ranges) {
				continue
			}
			for _, col := range wholeWordColumns(line, name) {
				refs = append(refs, types.Reference{
					FilePath: file.FilePath,
					Line:     lineNo,
					Column:   col,
					Text:     strings.TrimSpace(line),
				})
			}
		}
	}

	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].FilePath != refs[j].FilePath {
			return refs[i].FilePath < refs[j].FilePath
		}
		if refs[i].Line != refs[j].Line {
			return refs[i].Line < refs[j].Line
		}
		return refs[i].Column < refs[j].Column
	})
	return refs, nil
}

// AnalyzeDependencies reports a file's direct dependencies and its
// dependents. Depth is accepted for forward compatibility but clamped to 1.
func (s *Searcher) AnalyzeDependencies(ctx context.Context, filePath string, depth int) (*types.DependencyReport, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, fmt.Errorf("%w: file path cannot be empty", ErrInvalidQuery)
	}

	// Only direct relations are computed today. depth is accepted and
	// clamped so callers don't break when deeper traversal lands.
	depth = 1
	report := &types.DependencyReport{
		FilePath: filePath,
		Depth:    depth,
	}

	file, err := s.store.GetFile(ctx, filePath)
	if err != nil {
		log.Printf("search: dependency analysis failed for %s: %v", filePath, err)
		return report, nil
	}

	res := newResolver(s.store)

	deps, err := s.store.DependenciesByFile(ctx, file.ID)
	if err != nil {
		log.Printf("search: dependency analysis failed for %s: %v", filePath, err)
		return report, nil
	}
	for _, d := range deps {
		report.Dependencies = append(report.Dependencies, resolvedDependency(ctx, res, d, filePath))
	}

	dependents, err := s.store.DependentsOf(ctx, file.ID)
	if err != nil {
		log.Printf("search: dependent lookup failed for %s: %v", filePath, err)
		return report, nil
	}
	for _, d := range dependents {
		rd := types.ResolvedDependency{
			Dependency: d.ToTypesDependency(),
			TargetPath: filePath,
		}
		if src, err := res.fileByID(ctx, d.FileID); err == nil {
			rd.SourcePath = src.FilePath
		}
		report.Dependents = append(report.Dependents, rd)
	}
	return report, nil
}

// GetContext assembles retrieval context for a file: its symbols, related
// files via the dependency graph, dependency rows, and up to contextSize
// chunks. With a symbol name the chunks are the file's semantically closest
// to that name; without one they come in stored order.
func (s *Searcher) GetContext(ctx context.Context, filePath, symbolName string, contextSize int) (*types.ContextBundle, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, fmt.Errorf("%w: file path cannot be empty", ErrInvalidQuery)
	}
	if contextSize <= 0 {
		contextSize = DefaultContextSize
	}
	if contextSize > MaxContextSize {
		contextSize = MaxContextSize
	}

	bundle := &types.ContextBundle{}

	file, err := s.store.GetFile(ctx, filePath)
	if err != nil {
		log.Printf("search: context assembly failed for %s: %v", filePath, err)
		return bundle, nil
	}
	bundle.File = fileInfo(file)

	res := newResolver(s.store)

	symbols, err := s.store.SymbolsByFile(ctx, file.ID)
	if err != nil {
		log.Printf("search: context assembly failed for %s: %v", filePath, err)
		return bundle, nil
	}
	needle := strings.ToLower(symbolName)
	for _, sym := range symbols {
		if needle != "" && !strings.Contains(strings.ToLower(sym.Name), needle) {
			continue
		}
		bundle.Symbols = append(bundle.Symbols, sym.ToTypesSymbol())
	}

	related := make(map[string]bool)
	if deps, err := s.store.DependenciesByFile(ctx, file.ID); err == nil {
		for _, d := range deps {
			rd := resolvedDependency(ctx, res, d, filePath)
			bundle.Dependencies = append(bundle.Dependencies, rd)
			if rd.TargetPath != "" {
				related[rd.TargetPath] = true
			}
		}
	}
	if dependents, err := s.store.DependentsOf(ctx, file.ID); err == nil {
		for _, d := range dependents {
			if src, err := res.fileByID(ctx, d.FileID); err == nil {
				related[src.FilePath] = true
			}
		}
	}
	for path := range related {
		bundle.RelatedFiles = append(bundle.RelatedFiles, path)
	}
	sort.Strings(bundle.RelatedFiles)

	embeddings, err := s.store.EmbeddingsByFile(ctx, file.ID)
	if err != nil {
		log.Printf("search: context chunks unavailable for %s: %v", filePath, err)
		return bundle, nil
	}
	bundle.Chunks = s.contextChunks(ctx, embeddings, symbolName, contextSize)
	return bundle, nil
}

// contextChunks picks up to limit chunks, ranked against the symbol name
// when one is given and in stored order otherwise.
func (s *Searcher) contextChunks(ctx context.Context, embeddings []*storage.Embedding, symbolName string, limit int) []types.ContextChunk {
	if symbolName == "" {
		chunks := make([]types.ContextChunk, 0, limit)
		for _, e := range embeddings {
			if len(chunks) == limit {
				break
			}
			chunks = append(chunks, contextChunk(e, 0))
		}
		return chunks
	}

	qe, err := s.embedder.GenerateEmbedding(ctx, symbolName)
	if err != nil {
		log.Printf("search: failed to embed context query %q: %v", symbolName, err)
		return nil
	}

	type scored struct {
		emb   *storage.Embedding
		score float64
	}
	hits := make([]scored, 0, len(embeddings))
	for _, e := range embeddings {
		hits = append(hits, scored{emb: e, score: embedder.CosineSimilarity(qe.Vector, e.Vector)})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	chunks := make([]types.ContextChunk, 0, len(hits))
	for _, h := range hits {
		chunks = append(chunks, contextChunk(h.emb, h.score))
	}
	return chunks
}

// listScanFiles returns the files whose contents the reference scan covers
func (s *Searcher) listScanFiles(ctx context.Context, filePath string) ([]*storage.File, error) {
	if filePath == "" {
		return s.store.ListFiles(ctx)
	}
	file, err := s.store.GetFile(ctx, filePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return []*storage.File{file}, nil
}

func (s *Searcher) cachedResults(key [32]byte) ([]types.SearchResult, bool) {
	s.cacheMu.RLock()
	entry, ok := s.cache.Get(key)
	s.cacheMu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		s.cacheMu.Lock()
		s.cache.Remove(key)
		s.cacheMu.Unlock()
		return nil, false
	}
	out := make([]types.SearchResult, len(entry.results))
	copy(out, entry.results)
	return out, true
}

func (s *Searcher) storeResults(key [32]byte, results []types.SearchResult) {
	stored := make([]types.SearchResult, len(results))
	copy(stored, results)
	s.cacheMu.Lock()
	s.cache.Add(key, &cacheEntry{results: stored, expiresAt: time.Now().Add(cacheTTL)})
	s.cacheMu.Unlock()
}

func normalizeOptions(opts *SearchOptions) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Limit > MaxLimit {
		opts.Limit = MaxLimit
	}
	switch {
	case opts.Threshold == 0:
		opts.Threshold = DefaultThreshold
	case opts.Threshold < 0:
		opts.Threshold = 0
	}
}

func queryHash(query string, opts SearchOptions) [32]byte {
	var b strings.Builder
	b.WriteString(query)
	b.WriteString("|")
	fmt.Fprintf(&b, "%d|%.4f|", opts.Limit, opts.Threshold)
	b.WriteString(strings.Join(opts.FileExtensions, ","))
	return sha256.Sum256([]byte(b.String()))
}

func extensionAllowed(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	for _, ext := range exts {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// matchSpans returns the byte spans of case-insensitive literal query
// occurrences in the snippet.
func matchSpans(snippet, query string) []types.MatchSpan {
	lowSnippet := strings.ToLower(snippet)
	lowQuery := strings.ToLower(query)
	if lowQuery == "" {
		return nil
	}

	var spans []types.MatchSpan
	for start := 0; ; {
		i := strings.Index(lowSnippet[start:], lowQuery)
		if i < 0 {
			break
		}
		spans = append(spans, types.MatchSpan{Start: start + i, End: start + i + len(lowQuery)})
		start += i + len(lowQuery)
	}
	return spans
}

// wholeWordColumns returns 1-based columns where name occurs as a whole
// word: not adjacent to letters, digits, or underscores.
func wholeWordColumns(line, name string) []int {
	var cols []int
	for start := 0; ; {
		i := strings.Index(line[start:], name)
		if i < 0 {
			break
		}
		pos := start + i
		before := pos == 0 || !isWordByte(line[pos-1])
		afterIdx := pos + len(name)
		after := afterIdx >= len(line) || !isWordByte(line[afterIdx])
		if before && after {
			cols = append(cols, pos+1)
		}
		start = pos + len(name)
	}
	return cols
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func withinRanges(line int, ranges [][2]int) bool {
	for _, r := range ranges {
		if line >= r[0] && line <= r[1] {
			return true
		}
	}
	return false
}

func resolvedDependency(ctx context.Context, res *resolver, d *storage.Dependency, sourcePath string) types.ResolvedDependency {
	rd := types.ResolvedDependency{
		Dependency: d.ToTypesDependency(),
		SourcePath: sourcePath,
	}
	if d.TargetFileID != nil {
		if target, err := res.fileByID(ctx, *d.TargetFileID); err == nil {
			rd.TargetPath = target.FilePath
		}
	}
	return rd
}

func contextChunk(e *storage.Embedding, score float64) types.ContextChunk {
	return types.ContextChunk{
		Content:    e.Content,
		StartLine:  e.Metadata.StartLine,
		EndLine:    e.Metadata.EndLine,
		ChunkIndex: e.ChunkIndex,
		Score:      score,
	}
}

func fileInfo(f *storage.File) *types.FileInfo {
	return &types.FileInfo{
		Path:      f.FilePath,
		Language:  types.Language(f.Language),
		SizeBytes: f.SizeBytes,
		IndexedAt: f.IndexedAt,
	}
}

// resolver memoizes file and symbol lookups for one query
type resolver struct {
	store   storage.Storage
	files   map[int64]*storage.File
	symbols map[int64][]*storage.Symbol // keyed by file ID
}

func newResolver(store storage.Storage) *resolver {
	return &resolver{
		store:   store,
		files:   make(map[int64]*storage.File),
		symbols: make(map[int64][]*storage.Symbol),
	}
}

func (r *resolver) fileByID(ctx context.Context, id int64) (*storage.File, error) {
	if f, ok := r.files[id]; ok {
		return f, nil
	}
	f, err := r.store.GetFileByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.files[id] = f
	return f, nil
}

// symbolByID resolves a nullable symbol reference through the per-file
// symbol list, since symbols are always read file-at-a-time.
func (r *resolver) symbolByID(ctx context.Context, fileID int64, symbolID *int64) *types.Symbol {
	if symbolID == nil {
		return nil
	}
	symbols, ok := r.symbols[fileID]
	if !ok {
		loaded, err := r.store.SymbolsByFile(ctx, fileID)
		if err != nil {
			return nil
		}
		r.symbols[fileID] = loaded
		symbols = loaded
	}
	for _, sym := range symbols {
		if sym.ID == *symbolID {
			ts := sym.ToTypesSymbol()
			return &ts
		}
	}
	return nil
}
