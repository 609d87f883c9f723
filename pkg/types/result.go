package types

import "time"

// FileInfo carries file metadata attached to retrieval results
type FileInfo struct {
	Path      string // relative to repository root
	Language  Language
	SizeBytes int64
	IndexedAt time.Time
}

// MatchSpan is a [start, end) byte range of a literal query occurrence
// inside a snippet, for UI highlighting.
type MatchSpan struct {
	Start int
	End   int
}

// SearchResult is one ranked hit from semantic code search
type SearchResult struct {
	File       *FileInfo
	Symbol     *Symbol // non-nil when the chunk was symbol-scoped
	ChunkIndex int
	Score      float64 // cosine similarity against the query vector
	Snippet    string
	StartLine  int
	EndLine    int
	Matches    []MatchSpan // literal substring occurrences of the query
}

// SymbolMatch is one hit from exact-name symbol lookup
type SymbolMatch struct {
	Symbol   Symbol
	FilePath string
	Score    float64 // 1.2 name+kind, 1.0 name only
}

// Reference is a definition or textual usage of a symbol name
type Reference struct {
	FilePath     string
	Line         int // 1-based
	Column       int // 1-based
	Text         string
	IsDefinition bool
}

// ResolvedDependency pairs a dependency record with its resolved target
type ResolvedDependency struct {
	Dependency
	SourcePath string
	TargetPath string // empty when external or unresolved
}

// DependencyReport is the result of a dependency-graph query for one file
type DependencyReport struct {
	FilePath     string
	Dependencies []ResolvedDependency // imports declared by this file
	Dependents   []ResolvedDependency // files whose imports target this file
	Depth        int
}

// ContextChunk is one relevant code chunk included in an assembled context
type ContextChunk struct {
	Content    string
	StartLine  int
	EndLine    int
	ChunkIndex int
	Score      float64 // 0 when taken in stored order rather than by search
}

// ContextBundle is the assembled context for a file (and optionally a symbol)
type ContextBundle struct {
	File         *FileInfo
	Symbols      []Symbol
	RelatedFiles []string
	Dependencies []ResolvedDependency
	Chunks       []ContextChunk
}

// IndexStats summarizes one repository scan. A failed scan still yields the
// counters accumulated up to the failure.
type IndexStats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesFailed    int
	Symbols        int
	Chunks         int
	Duration       time.Duration
	Errors         []string
}
