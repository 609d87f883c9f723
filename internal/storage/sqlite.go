package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrNotInitialized is returned when a store is used after Close or
	// before it was opened
	ErrNotInitialized = errors.New("storage not initialized")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db, dbPath: dbPath}, nil
}

// ready reports whether the store can serve queries
func (s *SQLiteStorage) ready() error {
	if s.db == nil {
		return ErrNotInitialized
	}
	return nil
}

// Close closes the database connection. Subsequent calls return
// ErrNotInitialized.
func (s *SQLiteStorage) Close() error {
	if s.db == nil {
		return ErrNotInitialized
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// JSON helpers for string-array columns

func marshalStrings(values []string) (string, error) {
	if len(values) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to marshal string array: %w", err)
	}
	return string(data), nil
}

func unmarshalStrings(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal string array: %w", err)
	}
	return values, nil
}

// File operations

// upsertFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertFileWithQuerier(ctx context.Context, q querier, file *File) error {
	query := `
		INSERT INTO files (file_path, content, content_hash, size_bytes, language, mod_time, indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			content = excluded.content,
			content_hash = excluded.content_hash,
			size_bytes = excluded.size_bytes,
			language = excluded.language,
			mod_time = excluded.mod_time,
			indexed_at = excluded.indexed_at,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		file.FilePath, file.Content, file.ContentHash[:], file.SizeBytes,
		file.Language, file.ModTime, now, now, now).Scan(&file.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert file %s: %w", file.FilePath, err)
	}

	file.IndexedAt = now
	file.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertFile(ctx context.Context, file *File) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.upsertFileWithQuerier(ctx, s.querier(), file)
}

const fileColumns = `id, file_path, content, content_hash, size_bytes, language,
       mod_time, indexed_at, created_at, updated_at`

func scanFile(row interface{ Scan(...interface{}) error }) (*File, error) {
	var file File
	var hash []byte
	err := row.Scan(
		&file.ID, &file.FilePath, &file.Content, &hash, &file.SizeBytes,
		&file.Language, &file.ModTime, &file.IndexedAt,
		&file.CreatedAt, &file.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	copy(file.ContentHash[:], hash)
	return &file, nil
}

// getFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getFileWithQuerier(ctx context.Context, q querier, filePath string) (*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE file_path = ?`
	file, err := scanFile(q.QueryRowContext(ctx, query, filePath))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (s *SQLiteStorage) GetFile(ctx context.Context, filePath string) (*File, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.getFileWithQuerier(ctx, s.querier(), filePath)
}

// getFileByIDWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getFileByIDWithQuerier(ctx context.Context, q querier, fileID int64) (*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = ?`
	file, err := scanFile(q.QueryRowContext(ctx, query, fileID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (s *SQLiteStorage) GetFileByID(ctx context.Context, fileID int64) (*File, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.getFileByIDWithQuerier(ctx, s.querier(), fileID)
}

// listFilesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listFilesWithQuerier(ctx context.Context, q querier) ([]*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files ORDER BY file_path`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	files := make([]*File, 0)
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

func (s *SQLiteStorage) ListFiles(ctx context.Context) ([]*File, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.listFilesWithQuerier(ctx, s.querier())
}

// deleteFileWithQuerier is the internal implementation that uses a querier.
// Symbols, embeddings, and dependencies cascade through foreign keys.
func (s *SQLiteStorage) deleteFileWithQuerier(ctx context.Context, q querier, filePath string) error {
	query := `DELETE FROM files WHERE file_path = ?`
	_, err := q.ExecContext(ctx, query, filePath)
	return err
}

func (s *SQLiteStorage) DeleteFile(ctx context.Context, filePath string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.deleteFileWithQuerier(ctx, s.querier(), filePath)
}

// Symbol operations

// insertSymbolWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) insertSymbolWithQuerier(ctx context.Context, q querier, symbol *Symbol) error {
	modifiers, err := marshalStrings(symbol.Modifiers)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO symbols (file_id, name, kind, start_line, start_col, end_line, end_col, definition, doc_comment, modifiers, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		symbol.FileID, symbol.Name, symbol.Kind,
		symbol.StartLine, symbol.StartCol, symbol.EndLine, symbol.EndCol,
		symbol.Definition, symbol.DocComment, modifiers, now)
	if err != nil {
		return fmt.Errorf("failed to insert symbol %s: %w", symbol.Name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	symbol.ID = id
	symbol.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) InsertSymbol(ctx context.Context, symbol *Symbol) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.insertSymbolWithQuerier(ctx, s.querier(), symbol)
}

const symbolColumns = `id, file_id, name, kind, start_line, start_col, end_line, end_col,
       definition, doc_comment, modifiers, created_at`

func scanSymbol(row interface{ Scan(...interface{}) error }) (*Symbol, error) {
	var symbol Symbol
	var modifiers string
	err := row.Scan(
		&symbol.ID, &symbol.FileID, &symbol.Name, &symbol.Kind,
		&symbol.StartLine, &symbol.StartCol, &symbol.EndLine, &symbol.EndCol,
		&symbol.Definition, &symbol.DocComment, &modifiers, &symbol.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	symbol.Modifiers, err = unmarshalStrings(modifiers)
	if err != nil {
		return nil, err
	}
	return &symbol, nil
}

// symbolsByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) symbolsByFileWithQuerier(ctx context.Context, q querier, fileID int64) ([]*Symbol, error) {
	query := `SELECT ` + symbolColumns + ` FROM symbols WHERE file_id = ? ORDER BY start_line, start_col`
	rows, err := q.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	symbols := make([]*Symbol, 0)
	for rows.Next() {
		symbol, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}

func (s *SQLiteStorage) SymbolsByFile(ctx context.Context, fileID int64) ([]*Symbol, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.symbolsByFileWithQuerier(ctx, s.querier(), fileID)
}

// findSymbolsByNameWithQuerier is the internal implementation that uses a querier.
// An empty kind matches symbols of any kind.
func (s *SQLiteStorage) findSymbolsByNameWithQuerier(ctx context.Context, q querier, name, kind string) ([]*Symbol, error) {
	query := `SELECT ` + symbolColumns + ` FROM symbols WHERE name = ?`
	args := []interface{}{name}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY file_id, start_line`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	symbols := make([]*Symbol, 0)
	for rows.Next() {
		symbol, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}

func (s *SQLiteStorage) FindSymbolsByName(ctx context.Context, name, kind string) ([]*Symbol, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.findSymbolsByNameWithQuerier(ctx, s.querier(), name, kind)
}

// deleteSymbolsByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteSymbolsByFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	query := `DELETE FROM symbols WHERE file_id = ?`
	_, err := q.ExecContext(ctx, query, fileID)
	return err
}

func (s *SQLiteStorage) DeleteSymbolsByFile(ctx context.Context, fileID int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.deleteSymbolsByFileWithQuerier(ctx, s.querier(), fileID)
}

// Embedding operations

// insertEmbeddingWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) insertEmbeddingWithQuerier(ctx context.Context, q querier, embedding *Embedding) error {
	metadata, err := json.Marshal(embedding.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal chunk metadata: %w", err)
	}

	query := `
		INSERT INTO embeddings (file_id, symbol_id, chunk_index, content, vector, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		embedding.FileID, embedding.SymbolID, embedding.ChunkIndex,
		embedding.Content, serializeVector(embedding.Vector), string(metadata), now)
	if err != nil {
		return fmt.Errorf("failed to insert embedding (file %d, chunk %d): %w",
			embedding.FileID, embedding.ChunkIndex, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	embedding.ID = id
	embedding.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) InsertEmbedding(ctx context.Context, embedding *Embedding) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.insertEmbeddingWithQuerier(ctx, s.querier(), embedding)
}

const embeddingColumns = `id, file_id, symbol_id, chunk_index, content, vector, metadata, created_at`

func scanEmbedding(row interface{ Scan(...interface{}) error }) (*Embedding, error) {
	var embedding Embedding
	var symbolID sql.NullInt64
	var vectorBlob []byte
	var metadata sql.NullString
	err := row.Scan(
		&embedding.ID, &embedding.FileID, &symbolID, &embedding.ChunkIndex,
		&embedding.Content, &vectorBlob, &metadata, &embedding.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if symbolID.Valid {
		embedding.SymbolID = &symbolID.Int64
	}
	embedding.Vector = deserializeVector(vectorBlob)
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &embedding.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chunk metadata: %w", err)
		}
	}
	return &embedding, nil
}

// embeddingsByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) embeddingsByFileWithQuerier(ctx context.Context, q querier, fileID int64) ([]*Embedding, error) {
	query := `SELECT ` + embeddingColumns + ` FROM embeddings WHERE file_id = ? ORDER BY chunk_index`
	rows, err := q.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	embeddings := make([]*Embedding, 0)
	for rows.Next() {
		embedding, err := scanEmbedding(rows)
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, embedding)
	}
	return embeddings, rows.Err()
}

func (s *SQLiteStorage) EmbeddingsByFile(ctx context.Context, fileID int64) ([]*Embedding, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.embeddingsByFileWithQuerier(ctx, s.querier(), fileID)
}

// allEmbeddingsWithQuerier is the internal implementation that uses a querier.
// The candidate set for similarity search is the whole table; ranking happens
// in Go because the purego driver carries no vector extension.
func (s *SQLiteStorage) allEmbeddingsWithQuerier(ctx context.Context, q querier) ([]*Embedding, error) {
	query := `SELECT ` + embeddingColumns + ` FROM embeddings ORDER BY file_id, chunk_index`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	embeddings := make([]*Embedding, 0)
	for rows.Next() {
		embedding, err := scanEmbedding(rows)
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, embedding)
	}
	return embeddings, rows.Err()
}

func (s *SQLiteStorage) AllEmbeddings(ctx context.Context) ([]*Embedding, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.allEmbeddingsWithQuerier(ctx, s.querier())
}

// deleteEmbeddingsByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteEmbeddingsByFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	query := `DELETE FROM embeddings WHERE file_id = ?`
	_, err := q.ExecContext(ctx, query, fileID)
	return err
}

func (s *SQLiteStorage) DeleteEmbeddingsByFile(ctx context.Context, fileID int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.deleteEmbeddingsByFileWithQuerier(ctx, s.querier(), fileID)
}

// Dependency operations

// insertDependencyWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) insertDependencyWithQuerier(ctx context.Context, q querier, dep *Dependency) error {
	importedSymbols, err := marshalStrings(dep.ImportedSymbols)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO dependencies (file_id, target_file_id, import_path, import_kind, is_external, imported_symbols, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		dep.FileID, dep.TargetFileID, dep.ImportPath, dep.ImportKind,
		dep.IsExternal, importedSymbols, now)
	if err != nil {
		return fmt.Errorf("failed to insert dependency %s: %w", dep.ImportPath, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	dep.ID = id
	dep.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) InsertDependency(ctx context.Context, dep *Dependency) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.insertDependencyWithQuerier(ctx, s.querier(), dep)
}

const dependencyColumns = `id, file_id, target_file_id, import_path, import_kind, is_external, imported_symbols, created_at`

func scanDependency(row interface{ Scan(...interface{}) error }) (*Dependency, error) {
	var dep Dependency
	var targetFileID sql.NullInt64
	var importedSymbols string
	err := row.Scan(
		&dep.ID, &dep.FileID, &targetFileID, &dep.ImportPath, &dep.ImportKind,
		&dep.IsExternal, &importedSymbols, &dep.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if targetFileID.Valid {
		dep.TargetFileID = &targetFileID.Int64
	}
	dep.ImportedSymbols, err = unmarshalStrings(importedSymbols)
	if err != nil {
		return nil, err
	}
	return &dep, nil
}

func collectDependencies(rows *sql.Rows) ([]*Dependency, error) {
	deps := make([]*Dependency, 0)
	for rows.Next() {
		dep, err := scanDependency(rows)
		if err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}
	return deps, rows.Err()
}

// dependenciesByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) dependenciesByFileWithQuerier(ctx context.Context, q querier, fileID int64) ([]*Dependency, error) {
	query := `SELECT ` + dependencyColumns + ` FROM dependencies WHERE file_id = ? ORDER BY id`
	rows, err := q.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return collectDependencies(rows)
}

func (s *SQLiteStorage) DependenciesByFile(ctx context.Context, fileID int64) ([]*Dependency, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.dependenciesByFileWithQuerier(ctx, s.querier(), fileID)
}

// dependentsOfWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) dependentsOfWithQuerier(ctx context.Context, q querier, fileID int64) ([]*Dependency, error) {
	query := `SELECT ` + dependencyColumns + ` FROM dependencies WHERE target_file_id = ? ORDER BY file_id`
	rows, err := q.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return collectDependencies(rows)
}

func (s *SQLiteStorage) DependentsOf(ctx context.Context, fileID int64) ([]*Dependency, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.dependentsOfWithQuerier(ctx, s.querier(), fileID)
}

// deleteDependenciesByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteDependenciesByFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	query := `DELETE FROM dependencies WHERE file_id = ?`
	_, err := q.ExecContext(ctx, query, fileID)
	return err
}

func (s *SQLiteStorage) DeleteDependenciesByFile(ctx context.Context, fileID int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.deleteDependenciesByFileWithQuerier(ctx, s.querier(), fileID)
}

// Status operations

// statusWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) statusWithQuerier(ctx context.Context, q querier) (*IndexStatus, error) {
	status := &IndexStatus{}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM files", &status.FilesCount},
		{"SELECT COUNT(*) FROM symbols", &status.SymbolsCount},
		{"SELECT COUNT(*) FROM embeddings", &status.EmbeddingsCount},
		{"SELECT COUNT(*) FROM dependencies", &status.DependenciesCount},
	}
	for _, c := range counts {
		if err := q.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to compute index status: %w", err)
		}
	}

	var lastIndexedAt sql.NullTime
	err := q.QueryRowContext(ctx, "SELECT MAX(indexed_at) FROM files").Scan(&lastIndexedAt)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read last indexed time: %w", err)
	}
	if lastIndexedAt.Valid {
		status.LastIndexedAt = lastIndexedAt.Time
	}

	var pageCount, pageSize int64
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		if err := q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err == nil {
			status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
		}
	}

	return status, nil
}

func (s *SQLiteStorage) Status(ctx context.Context) (*IndexStatus, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.statusWithQuerier(ctx, s.querier())
}

// Transaction method implementations
// These delegate to the storage implementation using the transaction querier

func (t *sqliteTx) UpsertFile(ctx context.Context, file *File) error {
	return t.storage.upsertFileWithQuerier(ctx, t.querier(), file)
}

func (t *sqliteTx) GetFile(ctx context.Context, filePath string) (*File, error) {
	return t.storage.getFileWithQuerier(ctx, t.querier(), filePath)
}

func (t *sqliteTx) GetFileByID(ctx context.Context, fileID int64) (*File, error) {
	return t.storage.getFileByIDWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) ListFiles(ctx context.Context) ([]*File, error) {
	return t.storage.listFilesWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) DeleteFile(ctx context.Context, filePath string) error {
	return t.storage.deleteFileWithQuerier(ctx, t.querier(), filePath)
}

func (t *sqliteTx) InsertSymbol(ctx context.Context, symbol *Symbol) error {
	return t.storage.insertSymbolWithQuerier(ctx, t.querier(), symbol)
}

func (t *sqliteTx) SymbolsByFile(ctx context.Context, fileID int64) ([]*Symbol, error) {
	return t.storage.symbolsByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) FindSymbolsByName(ctx context.Context, name, kind string) ([]*Symbol, error) {
	return t.storage.findSymbolsByNameWithQuerier(ctx, t.querier(), name, kind)
}

func (t *sqliteTx) DeleteSymbolsByFile(ctx context.Context, fileID int64) error {
	return t.storage.deleteSymbolsByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) InsertEmbedding(ctx context.Context, embedding *Embedding) error {
	return t.storage.insertEmbeddingWithQuerier(ctx, t.querier(), embedding)
}

func (t *sqliteTx) EmbeddingsByFile(ctx context.Context, fileID int64) ([]*Embedding, error) {
	return t.storage.embeddingsByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) AllEmbeddings(ctx context.Context) ([]*Embedding, error) {
	return t.storage.allEmbeddingsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) DeleteEmbeddingsByFile(ctx context.Context, fileID int64) error {
	return t.storage.deleteEmbeddingsByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) InsertDependency(ctx context.Context, dep *Dependency) error {
	return t.storage.insertDependencyWithQuerier(ctx, t.querier(), dep)
}

func (t *sqliteTx) DependenciesByFile(ctx context.Context, fileID int64) ([]*Dependency, error) {
	return t.storage.dependenciesByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) DependentsOf(ctx context.Context, fileID int64) ([]*Dependency, error) {
	return t.storage.dependentsOfWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) DeleteDependenciesByFile(ctx context.Context, fileID int64) error {
	return t.storage.deleteDependenciesByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) Status(ctx context.Context) (*IndexStatus, error) {
	return t.storage.statusWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, fmt.Errorf("nested transactions are not supported")
}
