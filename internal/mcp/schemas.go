package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexRepositoryTool returns the tool definition for index_repository
func indexRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_repository",
		Description: "Scan the repository and (re)index every supported source file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-index files even when their modification time is unchanged",
					"default":     false,
				},
			},
		},
	}
}

// searchCodeTool returns the tool definition for search_code
func searchCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Semantic search over indexed code chunks using natural language or code snippets",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or code)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"file_extensions": map[string]interface{}{
					"type":        "array",
					"description": "Restrict results to files with these extensions (e.g. \".go\", \".py\")",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"threshold": map[string]interface{}{
					"type":        "number",
					"description": "Minimum cosine similarity for a hit (0.0-1.0)",
					"default":     0.7,
					"minimum":     0.0,
					"maximum":     1.0,
				},
			},
			Required: []string{"query"},
		},
	}
}

// findSymbolTool returns the tool definition for find_symbol
func findSymbolTool() mcp.Tool {
	return mcp.Tool{
		Name:        "find_symbol",
		Description: "Look up symbol definitions by exact name, optionally filtered by kind",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Exact symbol name",
				},
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Restrict matches to this symbol kind",
					"enum":        []string{"function", "class", "method", "variable", "interface", "type"},
				},
			},
			Required: []string{"name"},
		},
	}
}

// getReferencesTool returns the tool definition for get_references
func getReferencesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_references",
		Description: "Find definitions and whole-word textual usages of a symbol name",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Symbol name to find references for",
				},
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Restrict the scan to one repository-relative file",
				},
			},
			Required: []string{"name"},
		},
	}
}

// analyzeDependenciesTool returns the tool definition for analyze_dependencies
func analyzeDependenciesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "analyze_dependencies",
		Description: "Report a file's imports and the files that import it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Repository-relative path of the file to analyze",
				},
				"depth": map[string]interface{}{
					"type":        "integer",
					"description": "Traversal depth (currently clamped to 1)",
					"default":     1,
					"minimum":     1,
				},
			},
			Required: []string{"file_path"},
		},
	}
}

// getContextTool returns the tool definition for get_context
func getContextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_context",
		Description: "Assemble retrieval context for a file: symbols, related files, dependencies, and relevant chunks",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Repository-relative path of the file",
				},
				"symbol": map[string]interface{}{
					"type":        "string",
					"description": "Focus the context on symbols matching this name",
				},
				"context_size": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of chunks to include (1-50)",
					"default":     5,
					"minimum":     1,
					"maximum":     50,
				},
			},
			Required: []string{"file_path"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query index statistics: file, symbol, embedding, and dependency counts",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// watchRepositoryTool returns the tool definition for watch_repository
func watchRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "watch_repository",
		Description: "Control live re-indexing of the repository on filesystem changes",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"action": map[string]interface{}{
					"type":        "string",
					"description": "Watcher action to perform",
					"enum":        []string{"start", "stop", "pause", "resume", "status"},
				},
			},
			Required: []string{"action"},
		},
	}
}
