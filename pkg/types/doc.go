// Package types provides shared domain types for the codescope engine.
//
// This package defines the records that flow between the extractor, the
// indexing pipeline, the store, and the retrieval engine: symbols,
// dependencies, chunks, and the result shapes returned by queries.
//
// # Core Types
//
// Symbol represents a structural element located by pattern-based
// extraction:
//
//	symbol := &types.Symbol{
//	    Name:  "add",
//	    Kind:  types.KindFunction,
//	    Start: types.Position{Line: 1, Column: 1},
//	    End:   types.Position{Line: 1, Column: 40},
//	}
//
// Dependency records an import/include relationship, which may resolve to a
// file inside the repository or remain external:
//
//	dep := &types.Dependency{
//	    ImportPath: "./util",
//	    Kind:       types.ImportDeclarative,
//	    IsExternal: false,
//	}
//
// Chunk is the unit of embedding: a contiguous, line-aligned slice of a
// file's text with a 0-based per-file index.
//
// # Validation
//
// Domain types carry Validate methods used by tests and by the store before
// persisting:
//
//	if err := symbol.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package types
