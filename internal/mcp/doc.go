// Package mcp exposes the indexing and retrieval engine as MCP tools over
// stdio.
//
// Eight tools map 1:1 onto engine operations: index_repository,
// search_code, find_symbol, get_references, analyze_dependencies,
// get_context, get_status, and watch_repository. Handlers validate and
// decode parameters, call the engine, and serialize results as indented
// JSON; no engine logic lives in this package. All logging goes to stderr
// because stdout carries the protocol stream.
package mcp
