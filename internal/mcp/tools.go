package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"codescope/internal/indexer"
	"codescope/internal/searcher"
	"codescope/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeIndexingInProgress = -32001 // Another full scan is already running
)

const maxReportedErrors = 5

// handleIndexRepository handles the index_repository tool invocation
func (s *Server) handleIndexRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	force := getBoolDefault(args, "force", false)

	stats, err := s.indexer.IndexRepository(ctx, force)
	if err != nil {
		if errors.Is(err, indexer.ErrIndexInProgress) {
			return nil, newMCPError(ErrorCodeIndexingInProgress, "an indexing run is already in progress", nil)
		}
		if stats == nil {
			return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		// Interrupted scans still report what they accumulated
	}
	s.searcher.InvalidateCache()

	response := map[string]interface{}{
		"files_processed": stats.FilesProcessed,
		"files_skipped":   stats.FilesSkipped,
		"files_failed":    stats.FilesFailed,
		"symbols":         stats.Symbols,
		"chunks":          stats.Chunks,
		"duration_ms":     stats.Duration.Milliseconds(),
	}
	if err != nil {
		response["interrupted"] = err.Error()
	}
	if len(stats.Errors) > 0 {
		response["error_count"] = len(stats.Errors)
		if len(stats.Errors) > maxReportedErrors {
			response["errors"] = stats.Errors[:maxReportedErrors]
		} else {
			response["errors"] = stats.Errors
		}
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchCode handles the search_code tool invocation
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "query parameter is required", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", searcher.DefaultLimit)
	if limit < 1 || limit > searcher.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	opts := searcher.SearchOptions{
		Limit:          limit,
		FileExtensions: getStringSlice(args, "file_extensions"),
		Threshold:      getFloatDefault(args, "threshold", 0),
	}

	results, err := s.searcher.SearchCode(ctx, query, opts)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid search request", map[string]interface{}{
			"error": err.Error(),
		})
	}

	hits := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		hit := map[string]interface{}{
			"path":        r.File.Path,
			"language":    string(r.File.Language),
			"score":       r.Score,
			"snippet":     r.Snippet,
			"start_line":  r.StartLine,
			"end_line":    r.EndLine,
			"chunk_index": r.ChunkIndex,
		}
		if r.Symbol != nil {
			hit["symbol"] = map[string]interface{}{
				"name": r.Symbol.Name,
				"kind": string(r.Symbol.Kind),
			}
		}
		if len(r.Matches) > 0 {
			spans := make([]map[string]int, 0, len(r.Matches))
			for _, m := range r.Matches {
				spans = append(spans, map[string]int{"start": m.Start, "end": m.End})
			}
			hit["matches"] = spans
		}
		hits = append(hits, hit)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":   query,
		"total":   len(hits),
		"results": hits,
	})), nil
}

// handleFindSymbol handles the find_symbol tool invocation
func (s *Server) handleFindSymbol(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	name, ok := args["name"].(string)
	if !ok || name == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "name parameter is required", map[string]interface{}{
			"param":  "name",
			"reason": "missing or empty",
		})
	}
	kind := getStringDefault(args, "kind", "")

	matches, err := s.searcher.FindSymbol(ctx, name, kind)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid symbol lookup", map[string]interface{}{
			"error": err.Error(),
		})
	}

	out := make([]map[string]interface{}, 0, len(matches))
	for _, m := range matches {
		out = append(out, map[string]interface{}{
			"name":       m.Symbol.Name,
			"kind":       string(m.Symbol.Kind),
			"path":       m.FilePath,
			"line":       m.Symbol.Start.Line,
			"column":     m.Symbol.Start.Column,
			"score":      m.Score,
			"definition": m.Symbol.Definition,
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"name":    name,
		"total":   len(out),
		"matches": out,
	})), nil
}

// handleGetReferences handles the get_references tool invocation
func (s *Server) handleGetReferences(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	name, ok := args["name"].(string)
	if !ok || name == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "name parameter is required", map[string]interface{}{
			"param":  "name",
			"reason": "missing or empty",
		})
	}
	filePath := getStringDefault(args, "file_path", "")

	refs, err := s.searcher.GetReferences(ctx, name, filePath)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid reference lookup", map[string]interface{}{
			"error": err.Error(),
		})
	}

	out := make([]map[string]interface{}, 0, len(refs))
	for _, r := range refs {
		out = append(out, map[string]interface{}{
			"path":          r.FilePath,
			"line":          r.Line,
			"column":        r.Column,
			"text":          r.Text,
			"is_definition": r.IsDefinition,
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"name":       name,
		"total":      len(out),
		"references": out,
	})), nil
}

// handleAnalyzeDependencies handles the analyze_dependencies tool invocation
func (s *Server) handleAnalyzeDependencies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	filePath, ok := args["file_path"].(string)
	if !ok || filePath == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "file_path parameter is required", map[string]interface{}{
			"param":  "file_path",
			"reason": "missing or empty",
		})
	}
	depth := getIntDefault(args, "depth", 1)

	report, err := s.searcher.AnalyzeDependencies(ctx, filePath, depth)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid dependency request", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"file_path":    report.FilePath,
		"depth":        report.Depth,
		"dependencies": resolvedDeps(report.Dependencies),
		"dependents":   resolvedDeps(report.Dependents),
	})), nil
}

// handleGetContext handles the get_context tool invocation
func (s *Server) handleGetContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	filePath, ok := args["file_path"].(string)
	if !ok || filePath == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "file_path parameter is required", map[string]interface{}{
			"param":  "file_path",
			"reason": "missing or empty",
		})
	}
	symbol := getStringDefault(args, "symbol", "")
	contextSize := getIntDefault(args, "context_size", searcher.DefaultContextSize)

	bundle, err := s.searcher.GetContext(ctx, filePath, symbol, contextSize)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid context request", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"file_path":     filePath,
		"related_files": bundle.RelatedFiles,
		"dependencies":  resolvedDeps(bundle.Dependencies),
	}
	if bundle.File != nil {
		response["file"] = map[string]interface{}{
			"path":       bundle.File.Path,
			"language":   string(bundle.File.Language),
			"size_bytes": bundle.File.SizeBytes,
			"indexed_at": bundle.File.IndexedAt.Format(time.RFC3339),
		}
	}

	symbols := make([]map[string]interface{}, 0, len(bundle.Symbols))
	for _, sym := range bundle.Symbols {
		symbols = append(symbols, map[string]interface{}{
			"name":       sym.Name,
			"kind":       string(sym.Kind),
			"start_line": sym.Start.Line,
			"end_line":   sym.End.Line,
			"definition": sym.Definition,
		})
	}
	response["symbols"] = symbols

	chunks := make([]map[string]interface{}, 0, len(bundle.Chunks))
	for _, ch := range bundle.Chunks {
		chunks = append(chunks, map[string]interface{}{
			"content":     ch.Content,
			"start_line":  ch.StartLine,
			"end_line":    ch.EndLine,
			"chunk_index": ch.ChunkIndex,
			"score":       ch.Score,
		})
	}
	response["chunks"] = chunks

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.storage.Status(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read index status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed":  status.FilesCount > 0,
		"root":     s.indexer.Root(),
		"watching": s.watcher.Running(),
		"statistics": map[string]interface{}{
			"files_count":        status.FilesCount,
			"symbols_count":      status.SymbolsCount,
			"embeddings_count":   status.EmbeddingsCount,
			"dependencies_count": status.DependenciesCount,
			"index_size_mb":      fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
	}
	if !status.LastIndexedAt.IsZero() {
		response["last_indexed_at"] = status.LastIndexedAt.Format(time.RFC3339)
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleWatchRepository handles the watch_repository tool invocation
func (s *Server) handleWatchRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	action, ok := args["action"].(string)
	if !ok || action == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "action parameter is required", map[string]interface{}{
			"param":  "action",
			"reason": "missing or empty",
		})
	}

	switch action {
	case "start":
		// The watcher outlives this request, so it runs on its own context
		if err := s.watcher.Start(context.Background()); err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to start watcher", map[string]interface{}{
				"error": err.Error(),
			})
		}
	case "stop":
		s.watcher.Stop()
	case "pause":
		s.watcher.Pause()
	case "resume":
		s.watcher.Resume()
	case "status":
		// Fall through to the shared response
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid action", map[string]interface{}{
			"param":   "action",
			"value":   action,
			"allowed": []string{"start", "stop", "pause", "resume", "status"},
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"action":   action,
		"watching": s.watcher.Running(),
	})), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// arguments extracts the request argument map, tolerating absent arguments
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

func resolvedDeps(deps []types.ResolvedDependency) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(deps))
	for _, d := range deps {
		entry := map[string]interface{}{
			"import_path": d.ImportPath,
			"kind":        string(d.Kind),
			"is_external": d.IsExternal,
			"source_path": d.SourcePath,
		}
		if d.TargetPath != "" {
			entry["target_path"] = d.TargetPath
		}
		if len(d.ImportedSymbols) > 0 {
			entry["imported_symbols"] = d.ImportedSymbols
		}
		out = append(out, entry)
	}
	return out
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a float parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter
func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
