package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T, files map[string]string) *Server {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}

	t.Setenv("CODESCOPE_EMBEDDING_PROVIDER", "local")
	s, err := NewServer(root, filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		s.watcher.Stop()
		_ = s.storage.Close()
	})
	return s
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) map[string]interface{} {
	t.Helper()
	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)

	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "tool results are text content")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &decoded))
	return decoded
}

func TestNewServer_Components(t *testing.T) {
	s := setupServer(t, map[string]string{"a.js": "function a() {}\n"})

	assert.NotNil(t, s.mcp)
	assert.NotNil(t, s.storage)
	assert.NotNil(t, s.indexer)
	assert.NotNil(t, s.searcher)
	assert.NotNil(t, s.watcher)
}

func TestHandleIndexRepositoryAndStatus(t *testing.T) {
	s := setupServer(t, map[string]string{
		"auth.js": "export function authenticate(user, password) {\n  return user && password;\n}\n",
		"db.py":   "def connect(url):\n    return url\n",
	})

	before := callTool(t, s.handleGetStatus, nil)
	assert.Equal(t, false, before["indexed"])

	indexed := callTool(t, s.handleIndexRepository, map[string]interface{}{})
	assert.Equal(t, float64(2), indexed["files_processed"])
	assert.Equal(t, float64(0), indexed["files_failed"])

	after := callTool(t, s.handleGetStatus, nil)
	assert.Equal(t, true, after["indexed"])
	stats := after["statistics"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["files_count"])
	assert.Greater(t, stats["symbols_count"], float64(0))
}

func TestNewServer_MaxFileSizeFromEnv(t *testing.T) {
	t.Setenv("CODESCOPE_MAX_FILE_SIZE", "64")
	s := setupServer(t, map[string]string{
		"small.js": "function a() {}\n",
		"big.js":   "function b() { return 'xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx'; }\n",
	})

	indexed := callTool(t, s.handleIndexRepository, nil)
	assert.Equal(t, float64(1), indexed["files_processed"])
	assert.Equal(t, float64(1), indexed["files_skipped"], "oversized file is skipped")
}

func TestMaxFileSizeFromEnv_InvalidValues(t *testing.T) {
	for _, raw := range []string{"", "abc", "-5", "0"} {
		t.Setenv("CODESCOPE_MAX_FILE_SIZE", raw)
		assert.Equal(t, int64(0), maxFileSizeFromEnv(), "raw=%q", raw)
	}
	t.Setenv("CODESCOPE_MAX_FILE_SIZE", "1048576")
	assert.Equal(t, int64(1048576), maxFileSizeFromEnv())
}

func TestHandleSearchCode(t *testing.T) {
	s := setupServer(t, map[string]string{
		"auth.js": "function authenticate(user, password) { return checkCredentials(user, password); }\n",
	})
	callTool(t, s.handleIndexRepository, nil)

	res := callTool(t, s.handleSearchCode, map[string]interface{}{
		"query":     "function authenticate(user, password) { return checkCredentials(user, password); }",
		"threshold": 0.5,
	})
	require.GreaterOrEqual(t, res["total"], float64(1))
	hits := res["results"].([]interface{})
	first := hits[0].(map[string]interface{})
	assert.Equal(t, "auth.js", first["path"])

	// Missing query is a parameter error
	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: map[string]interface{}{}}}
	_, err := s.handleSearchCode(context.Background(), req)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHandleFindSymbolAndReferences(t *testing.T) {
	s := setupServer(t, map[string]string{
		"util.js": "function helper() {\n  return 1;\n}\n\nconst x = helper();\n",
	})
	callTool(t, s.handleIndexRepository, nil)

	found := callTool(t, s.handleFindSymbol, map[string]interface{}{
		"name": "helper",
		"kind": "function",
	})
	require.Equal(t, float64(1), found["total"])
	match := found["matches"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "util.js", match["path"])
	assert.Equal(t, 1.2, match["score"])

	refs := callTool(t, s.handleGetReferences, map[string]interface{}{"name": "helper"})
	assert.Equal(t, float64(2), refs["total"], "one definition plus one usage")
}

func TestHandleAnalyzeDependencies(t *testing.T) {
	s := setupServer(t, map[string]string{
		"src/a.js": "export function helper() {}\n",
		"src/b.js": "import { helper } from './a';\n",
	})
	callTool(t, s.handleIndexRepository, nil)

	report := callTool(t, s.handleAnalyzeDependencies, map[string]interface{}{
		"file_path": "src/b.js",
	})
	deps := report["dependencies"].([]interface{})
	require.Len(t, deps, 1)
	dep := deps[0].(map[string]interface{})
	assert.Equal(t, "./a", dep["import_path"])
	assert.Equal(t, "src/a.js", dep["target_path"])
}

func TestHandleGetContext(t *testing.T) {
	s := setupServer(t, map[string]string{
		"store.py": "class Store:\n    def add(self, item):\n        pass\n",
	})
	callTool(t, s.handleIndexRepository, nil)

	bundle := callTool(t, s.handleGetContext, map[string]interface{}{
		"file_path": "store.py",
	})
	file := bundle["file"].(map[string]interface{})
	assert.Equal(t, "store.py", file["path"])
	assert.Equal(t, "python", file["language"])
	assert.NotEmpty(t, bundle["symbols"])
	assert.NotEmpty(t, bundle["chunks"])
}

func TestHandleWatchRepository(t *testing.T) {
	s := setupServer(t, map[string]string{"a.js": "function a() {}\n"})

	status := callTool(t, s.handleWatchRepository, map[string]interface{}{"action": "status"})
	assert.Equal(t, false, status["watching"])

	started := callTool(t, s.handleWatchRepository, map[string]interface{}{"action": "start"})
	assert.Equal(t, true, started["watching"])

	stopped := callTool(t, s.handleWatchRepository, map[string]interface{}{"action": "stop"})
	assert.Equal(t, false, stopped["watching"])

	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: map[string]interface{}{"action": "reboot"}}}
	_, err := s.handleWatchRepository(context.Background(), req)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}
