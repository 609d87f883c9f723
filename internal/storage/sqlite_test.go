package storage

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	// Use in-memory database for testing
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NotNil(t, storage)
	return storage
}

func testFile(path, content string) *File {
	return &File{
		FilePath:    path,
		Content:     content,
		ContentHash: sha256.Sum256([]byte(content)),
		SizeBytes:   int64(len(content)),
		Language:    "javascript",
		ModTime:     time.Now(),
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	assert.NotNil(t, storage)
	assert.NotNil(t, storage.db)
}

func TestClose(t *testing.T) {
	storage := setupTestDB(t)
	err := storage.Close()
	assert.NoError(t, err)

	// Everything after Close fails with ErrNotInitialized
	err = storage.Close()
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = storage.GetFile(context.Background(), "src/app.js")
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = storage.BeginTx(context.Background())
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestUpsertFile(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	file := testFile("src/app.js", "const x = 1;")

	err := storage.UpsertFile(ctx, file)
	require.NoError(t, err)
	assert.Greater(t, file.ID, int64(0))
	assert.False(t, file.IndexedAt.IsZero())

	// Upsert again with new content - same row, updated fields
	updated := testFile("src/app.js", "const x = 2;")
	err = storage.UpsertFile(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, file.ID, updated.ID)

	retrieved, err := storage.GetFile(ctx, "src/app.js")
	require.NoError(t, err)
	assert.Equal(t, "const x = 2;", retrieved.Content)
	assert.Equal(t, updated.ContentHash, retrieved.ContentHash)

	files, err := storage.ListFiles(ctx)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestGetFile_NotFound(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	_, err := storage.GetFile(ctx, "nonexistent.js")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = storage.GetFileByID(ctx, 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteFile_Cascade(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	file := testFile("src/app.js", "function add(a, b) { return a + b; }")
	require.NoError(t, storage.UpsertFile(ctx, file))

	symbol := &Symbol{
		FileID:    file.ID,
		Name:      "add",
		Kind:      "function",
		StartLine: 1,
		StartCol:  1,
		EndLine:   1,
		EndCol:    37,
	}
	require.NoError(t, storage.InsertSymbol(ctx, symbol))

	embedding := &Embedding{
		FileID:     file.ID,
		ChunkIndex: 0,
		Content:    file.Content,
		Vector:     []float32{0.1, 0.2, 0.3},
	}
	require.NoError(t, storage.InsertEmbedding(ctx, embedding))

	dep := &Dependency{
		FileID:     file.ID,
		ImportPath: "./util",
		ImportKind: "import",
	}
	require.NoError(t, storage.InsertDependency(ctx, dep))

	err := storage.DeleteFile(ctx, "src/app.js")
	require.NoError(t, err)

	_, err = storage.GetFile(ctx, "src/app.js")
	assert.ErrorIs(t, err, ErrNotFound)

	symbols, err := storage.FindSymbolsByName(ctx, "add", "")
	require.NoError(t, err)
	assert.Empty(t, symbols)

	embeddings, err := storage.AllEmbeddings(ctx)
	require.NoError(t, err)
	assert.Empty(t, embeddings)

	status, err := storage.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, status.DependenciesCount)
}

func TestInsertSymbol(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	file := testFile("src/service.ts", "export class UserService {}")
	require.NoError(t, storage.UpsertFile(ctx, file))

	symbol := &Symbol{
		FileID:     file.ID,
		Name:       "UserService",
		Kind:       "class",
		StartLine:  1,
		StartCol:   8,
		EndLine:    1,
		EndCol:     27,
		Definition: "export class UserService {}",
		Modifiers:  []string{"export"},
	}
	err := storage.InsertSymbol(ctx, symbol)
	require.NoError(t, err)
	assert.Greater(t, symbol.ID, int64(0))

	symbols, err := storage.SymbolsByFile(ctx, file.ID)
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, "UserService", symbols[0].Name)
	assert.Equal(t, []string{"export"}, symbols[0].Modifiers)
}

func TestFindSymbolsByName(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	file := testFile("src/app.py", "class Config:\n    pass\n\ndef Config():\n    pass\n")
	require.NoError(t, storage.UpsertFile(ctx, file))

	require.NoError(t, storage.InsertSymbol(ctx, &Symbol{
		FileID: file.ID, Name: "Config", Kind: "class",
		StartLine: 1, StartCol: 1, EndLine: 2, EndCol: 8,
	}))
	require.NoError(t, storage.InsertSymbol(ctx, &Symbol{
		FileID: file.ID, Name: "Config", Kind: "function",
		StartLine: 4, StartCol: 1, EndLine: 5, EndCol: 8,
	}))

	// Name only matches both kinds
	all, err := storage.FindSymbolsByName(ctx, "Config", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Kind filter narrows to one
	classes, err := storage.FindSymbolsByName(ctx, "Config", "class")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "class", classes[0].Kind)

	none, err := storage.FindSymbolsByName(ctx, "Missing", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInsertEmbedding_RoundTrip(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	file := testFile("src/app.js", "const x = 1;")
	require.NoError(t, storage.UpsertFile(ctx, file))

	embedding := &Embedding{
		FileID:     file.ID,
		ChunkIndex: 0,
		Content:    "const x = 1;",
		Vector:     []float32{0.5, -0.25, 0.125},
		Metadata: ChunkMetadata{
			Language:  "javascript",
			StartLine: 1,
			EndLine:   1,
			Kind:      "code",
		},
	}
	require.NoError(t, storage.InsertEmbedding(ctx, embedding))

	embeddings, err := storage.EmbeddingsByFile(ctx, file.ID)
	require.NoError(t, err)
	require.Len(t, embeddings, 1)
	assert.Equal(t, []float32{0.5, -0.25, 0.125}, embeddings[0].Vector)
	assert.Equal(t, "javascript", embeddings[0].Metadata.Language)
	assert.Equal(t, 1, embeddings[0].Metadata.StartLine)
}

func TestInsertEmbedding_DuplicateChunkIndex(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	file := testFile("src/app.js", "const x = 1;")
	require.NoError(t, storage.UpsertFile(ctx, file))

	first := &Embedding{FileID: file.ID, ChunkIndex: 0, Content: "a", Vector: []float32{1}}
	require.NoError(t, storage.InsertEmbedding(ctx, first))

	// UNIQUE(file_id, chunk_index) rejects a second row for the same slot
	dup := &Embedding{FileID: file.ID, ChunkIndex: 0, Content: "b", Vector: []float32{2}}
	err := storage.InsertEmbedding(ctx, dup)
	assert.Error(t, err)
}

func TestDependencies(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	target := testFile("src/util.js", "export function helper() {}")
	require.NoError(t, storage.UpsertFile(ctx, target))

	source := testFile("src/app.js", "import { helper } from './util';")
	require.NoError(t, storage.UpsertFile(ctx, source))

	dep := &Dependency{
		FileID:          source.ID,
		TargetFileID:    &target.ID,
		ImportPath:      "./util",
		ImportKind:      "import",
		IsExternal:      false,
		ImportedSymbols: []string{"helper"},
	}
	require.NoError(t, storage.InsertDependency(ctx, dep))

	external := &Dependency{
		FileID:     source.ID,
		ImportPath: "react",
		ImportKind: "import",
		IsExternal: true,
	}
	require.NoError(t, storage.InsertDependency(ctx, external))

	deps, err := storage.DependenciesByFile(ctx, source.ID)
	require.NoError(t, err)
	require.Len(t, deps, 2)
	require.NotNil(t, deps[0].TargetFileID)
	assert.Equal(t, target.ID, *deps[0].TargetFileID)
	assert.Equal(t, []string{"helper"}, deps[0].ImportedSymbols)
	assert.Nil(t, deps[1].TargetFileID)
	assert.True(t, deps[1].IsExternal)

	dependents, err := storage.DependentsOf(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, dependents, 1)
	assert.Equal(t, source.ID, dependents[0].FileID)
}

func TestStatus(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	status, err := storage.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, status.FilesCount)
	assert.True(t, status.LastIndexedAt.IsZero())

	file := testFile("src/app.js", "const x = 1;")
	require.NoError(t, storage.UpsertFile(ctx, file))
	require.NoError(t, storage.InsertSymbol(ctx, &Symbol{
		FileID: file.ID, Name: "x", Kind: "variable",
		StartLine: 1, StartCol: 7, EndLine: 1, EndCol: 8,
	}))
	require.NoError(t, storage.InsertEmbedding(ctx, &Embedding{
		FileID: file.ID, ChunkIndex: 0, Content: "const x = 1;", Vector: []float32{1},
	}))

	status, err = storage.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.FilesCount)
	assert.Equal(t, 1, status.SymbolsCount)
	assert.Equal(t, 1, status.EmbeddingsCount)
	assert.False(t, status.LastIndexedAt.IsZero())
}

func TestTransaction_Commit(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)

	file := testFile("src/app.js", "const x = 1;")
	require.NoError(t, tx.UpsertFile(ctx, file))
	require.NoError(t, tx.InsertEmbedding(ctx, &Embedding{
		FileID: file.ID, ChunkIndex: 0, Content: "const x = 1;", Vector: []float32{1},
	}))
	require.NoError(t, tx.Commit())

	retrieved, err := storage.GetFile(ctx, "src/app.js")
	require.NoError(t, err)
	assert.Equal(t, file.ID, retrieved.ID)
}

func TestTransaction_Rollback(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)

	file := testFile("src/app.js", "const x = 1;")
	require.NoError(t, tx.UpsertFile(ctx, file))
	require.NoError(t, tx.Rollback())

	_, err = storage.GetFile(ctx, "src/app.js")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransaction_ReplaceFileDerivedRows(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	file := testFile("src/app.js", "function a() {}\nfunction b() {}")
	require.NoError(t, storage.UpsertFile(ctx, file))
	require.NoError(t, storage.InsertSymbol(ctx, &Symbol{
		FileID: file.ID, Name: "a", Kind: "function",
		StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 16,
	}))
	require.NoError(t, storage.InsertEmbedding(ctx, &Embedding{
		FileID: file.ID, ChunkIndex: 0, Content: "function a() {}", Vector: []float32{1},
	}))

	// Re-index: delete then insert inside one transaction
	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.DeleteSymbolsByFile(ctx, file.ID))
	require.NoError(t, tx.DeleteEmbeddingsByFile(ctx, file.ID))
	require.NoError(t, tx.InsertSymbol(ctx, &Symbol{
		FileID: file.ID, Name: "b", Kind: "function",
		StartLine: 2, StartCol: 1, EndLine: 2, EndCol: 16,
	}))
	require.NoError(t, tx.InsertEmbedding(ctx, &Embedding{
		FileID: file.ID, ChunkIndex: 0, Content: "function b() {}", Vector: []float32{2},
	}))
	require.NoError(t, tx.Commit())

	symbols, err := storage.SymbolsByFile(ctx, file.ID)
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, "b", symbols[0].Name)

	embeddings, err := storage.EmbeddingsByFile(ctx, file.ID)
	require.NoError(t, err)
	require.Len(t, embeddings, 1)
	assert.Equal(t, []float32{2}, embeddings[0].Vector)
}

func TestNestedTransaction(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	_, err = tx.BeginTx(ctx)
	assert.Error(t, err)
}
