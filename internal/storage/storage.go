package storage

import (
	"context"
	"time"

	"codescope/pkg/types"
)

// Storage defines the interface for persisting and querying the derived
// index: files, symbols, embeddings, and dependencies.
type Storage interface {
	// File operations. UpsertFile replaces content, fingerprint, size,
	// language, and mod time for an existing path and refreshes indexed_at.
	UpsertFile(ctx context.Context, file *File) error
	GetFile(ctx context.Context, filePath string) (*File, error)
	GetFileByID(ctx context.Context, fileID int64) (*File, error)
	ListFiles(ctx context.Context) ([]*File, error)
	// DeleteFile cascades to the file's symbols, embeddings, and dependencies.
	DeleteFile(ctx context.Context, filePath string) error

	// Symbol operations. Symbols are replaced wholesale per file:
	// DeleteSymbolsByFile then InsertSymbol for each new row.
	InsertSymbol(ctx context.Context, symbol *Symbol) error
	SymbolsByFile(ctx context.Context, fileID int64) ([]*Symbol, error)
	FindSymbolsByName(ctx context.Context, name, kind string) ([]*Symbol, error)
	DeleteSymbolsByFile(ctx context.Context, fileID int64) error

	// Embedding operations
	InsertEmbedding(ctx context.Context, embedding *Embedding) error
	EmbeddingsByFile(ctx context.Context, fileID int64) ([]*Embedding, error)
	AllEmbeddings(ctx context.Context) ([]*Embedding, error)
	DeleteEmbeddingsByFile(ctx context.Context, fileID int64) error

	// Dependency operations
	InsertDependency(ctx context.Context, dep *Dependency) error
	DependenciesByFile(ctx context.Context, fileID int64) ([]*Dependency, error)
	DependentsOf(ctx context.Context, fileID int64) ([]*Dependency, error)
	DeleteDependenciesByFile(ctx context.Context, fileID int64) error

	// Status operations
	Status(ctx context.Context) (*IndexStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction. The indexing pipeline runs each
// whole-file replace inside one Tx so readers never observe partial state.
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// File represents one indexed path. FilePath is unique across the store.
type File struct {
	ID          int64
	FilePath    string // Relative to repository root
	Content     string
	ContentHash [32]byte
	SizeBytes   int64
	Language    string
	ModTime     time.Time // Filesystem mtime at index time
	IndexedAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Symbol represents an extracted structural element owned by a File
type Symbol struct {
	ID         int64
	FileID     int64
	Name       string
	Kind       string
	StartLine  int
	StartCol   int
	EndLine    int
	EndCol     int
	Definition string
	DocComment string
	Modifiers  []string // persisted as a JSON string array
	CreatedAt  time.Time
}

// ChunkMetadata is the free-form metadata persisted alongside a vector
type ChunkMetadata struct {
	Language  string `json:"language"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Kind      string `json:"kind"`
}

// Embedding represents one embedded text chunk owned by a File.
// ChunkIndex is contiguous per file starting at 0.
type Embedding struct {
	ID         int64
	FileID     int64
	SymbolID   *int64 // Nullable - set when the chunk is symbol-scoped
	ChunkIndex int
	Content    string
	Vector     []float32 // persisted as a little-endian float32 blob
	Metadata   ChunkMetadata
	CreatedAt  time.Time
}

// Dependency represents an import/include relationship owned by a File.
// TargetFileID is null when the import is external or unresolved.
type Dependency struct {
	ID              int64
	FileID          int64
	TargetFileID    *int64
	ImportPath      string
	ImportKind      string
	IsExternal      bool
	ImportedSymbols []string // persisted as a JSON string array
	CreatedAt       time.Time
}

// IndexStatus contains aggregate statistics about the index
type IndexStatus struct {
	FilesCount        int
	SymbolsCount      int
	EmbeddingsCount   int
	DependenciesCount int
	IndexSizeMB       float64
	LastIndexedAt     time.Time
}

// ToTypesSymbol converts a storage Symbol to the shared domain type
func (s *Symbol) ToTypesSymbol() types.Symbol {
	return types.Symbol{
		Name: s.Name,
		Kind: types.SymbolKind(s.Kind),
		Start: types.Position{
			Line:   s.StartLine,
			Column: s.StartCol,
		},
		End: types.Position{
			Line:   s.EndLine,
			Column: s.EndCol,
		},
		Definition: s.Definition,
		DocComment: s.DocComment,
		Modifiers:  s.Modifiers,
	}
}

// FromTypesSymbol converts a domain symbol to a storage Symbol
func FromTypesSymbol(s types.Symbol, fileID int64) *Symbol {
	return &Symbol{
		FileID:     fileID,
		Name:       s.Name,
		Kind:       string(s.Kind),
		StartLine:  s.Start.Line,
		StartCol:   s.Start.Column,
		EndLine:    s.End.Line,
		EndCol:     s.End.Column,
		Definition: s.Definition,
		DocComment: s.DocComment,
		Modifiers:  s.Modifiers,
	}
}

// FromTypesDependency converts a domain dependency to a storage Dependency.
// Target resolution happens later in the pipeline, so TargetFileID starts nil.
func FromTypesDependency(d types.Dependency, fileID int64) *Dependency {
	return &Dependency{
		FileID:          fileID,
		ImportPath:      d.ImportPath,
		ImportKind:      string(d.Kind),
		IsExternal:      d.IsExternal,
		ImportedSymbols: d.ImportedSymbols,
	}
}

// ToTypesDependency converts a storage Dependency to the shared domain type
func (d *Dependency) ToTypesDependency() types.Dependency {
	return types.Dependency{
		ImportPath:      d.ImportPath,
		Kind:            types.ImportKind(d.ImportKind),
		IsExternal:      d.IsExternal,
		ImportedSymbols: d.ImportedSymbols,
	}
}
