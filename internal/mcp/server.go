package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mark3labs/mcp-go/server"

	"codescope/internal/embedder"
	"codescope/internal/indexer"
	"codescope/internal/searcher"
	"codescope/internal/storage"
	"codescope/internal/watcher"
)

const (
	// ServerName is the MCP server name
	ServerName = "codescope"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBDir is the repository-local directory holding the index
	DefaultDBDir = ".codescope"
	// DefaultDBFile is the index database file name
	DefaultDBFile = "index.db"
)

// Server wraps the MCP server with the engine it exposes. Every tool maps
// 1:1 onto an engine operation; no engine logic lives here.
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Storage
	indexer  *indexer.Indexer
	searcher *searcher.Searcher
	watcher  *watcher.Watcher
}

// NewServer wires storage, embedder, indexer, searcher, and watcher for one
// repository and registers the tool surface. dbPath empty means
// <root>/.codescope/index.db.
func NewServer(root, dbPath string) (*Server, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository root: %w", err)
	}

	if dbPath == "" {
		dbPath = filepath.Join(absRoot, DefaultDBDir, DefaultDBFile)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// One embedder instance serves both indexing and search, so query and
	// chunk vectors come from the same provider and share one cache
	emb, err := embedder.NewFromEnv()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	idx, err := indexer.New(store, emb, indexer.Config{
		Root:        absRoot,
		MaxFileSize: maxFileSizeFromEnv(),
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize indexer: %w", err)
	}

	srch := searcher.New(store, emb)

	w := watcher.New(idx, watcher.Config{
		OnIndexed: func(watcher.Event) { srch.InvalidateCache() },
	})

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		storage:  store,
		indexer:  idx,
		searcher: srch,
		watcher:  w,
	}
	s.registerTools()
	return s, nil
}

// maxFileSizeFromEnv reads the CODESCOPE_MAX_FILE_SIZE override in bytes.
// Zero means the indexer default; bad values are logged and ignored.
func maxFileSizeFromEnv() int64 {
	raw := os.Getenv("CODESCOPE_MAX_FILE_SIZE")
	if raw == "" {
		return 0
	}
	size, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || size <= 0 {
		log.Printf("ignoring invalid CODESCOPE_MAX_FILE_SIZE %q", raw)
		return 0
	}
	return size
}

// Serve runs the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() {
		s.watcher.Stop()
		_ = s.storage.Close()
	}()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexRepositoryTool(), s.handleIndexRepository)
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
	s.mcp.AddTool(findSymbolTool(), s.handleFindSymbol)
	s.mcp.AddTool(getReferencesTool(), s.handleGetReferences)
	s.mcp.AddTool(analyzeDependenciesTool(), s.handleAnalyzeDependencies)
	s.mcp.AddTool(getContextTool(), s.handleGetContext)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	s.mcp.AddTool(watchRepositoryTool(), s.handleWatchRepository)
}
