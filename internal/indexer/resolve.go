package indexer

import (
	"context"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"codescope/internal/storage"
	"codescope/pkg/types"
)

// resolutionExtensions lists, per language, the extensions tried when an
// import path is written without one ("./utils" -> "./utils.js").
var resolutionExtensions = map[types.Language][]string{
	types.LangJavaScript: {".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx"},
	types.LangTypeScript: {".ts", ".tsx", ".js", ".jsx"},
	types.LangPython:     {".py"},
	types.LangRuby:       {".rb"},
	types.LangRust:       {".rs"},
}

// pathCache memoizes file-path -> file-ID lookups for one indexing run.
// Misses are cached too, so repeated unresolvable imports hit the store once.
type pathCache struct {
	mu    sync.Mutex
	store storage.Storage
	ids   map[string]int64
	miss  map[string]struct{}
}

func newPathCache(store storage.Storage) *pathCache {
	return &pathCache{
		store: store,
		ids:   make(map[string]int64),
		miss:  make(map[string]struct{}),
	}
}

func (c *pathCache) lookup(ctx context.Context, relPath string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.ids[relPath]; ok {
		return id, true
	}
	if _, ok := c.miss[relPath]; ok {
		return 0, false
	}

	f, err := c.store.GetFile(ctx, relPath)
	if err != nil {
		c.miss[relPath] = struct{}{}
		return 0, false
	}
	c.ids[relPath] = f.ID
	return f.ID, true
}

// put records a freshly indexed file so later lookups in the same run
// resolve without a store round-trip.
func (c *pathCache) put(relPath string, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids[relPath] = id
	delete(c.miss, relPath)
}

// resolveTarget maps a local import in sourceRel to the file ID of its
// target, or nil when no candidate path is indexed. External imports are
// never resolved.
func resolveTarget(ctx context.Context, cache *pathCache, sourceRel string, dep types.Dependency, lang types.Language) *int64 {
	if dep.IsExternal {
		return nil
	}
	for _, cand := range candidateTargets(sourceRel, dep.ImportPath, lang) {
		if id, ok := cache.lookup(ctx, cand); ok {
			return &id
		}
	}
	return nil
}

// candidateTargets expands a local import path into the repository-relative
// paths it could denote, in preference order.
func candidateTargets(sourceRel, importPath string, lang types.Language) []string {
	dir := path.Dir(filepath.ToSlash(sourceRel))

	var base string
	switch lang {
	case types.LangPython:
		base = pythonRelativeBase(dir, importPath)
	case types.LangRust:
		base = rustUseBase(dir, importPath)
	default:
		base = path.Join(dir, importPath)
	}
	if base == "" {
		return nil
	}
	base = path.Clean(base)
	if base == "." || strings.HasPrefix(base, "../") {
		return nil
	}

	candidates := []string{base}
	for _, ext := range resolutionExtensions[lang] {
		candidates = append(candidates, base+ext)
	}
	if lang == types.LangJavaScript || lang == types.LangTypeScript {
		for _, ext := range resolutionExtensions[lang] {
			candidates = append(candidates, base+"/index"+ext)
		}
	}
	return candidates
}

// pythonRelativeBase converts a relative module path (".models", "..pkg.db")
// into a repository-relative file path without extension.
func pythonRelativeBase(dir, importPath string) string {
	if !strings.HasPrefix(importPath, ".") {
		return ""
	}
	dots := 0
	for dots < len(importPath) && importPath[dots] == '.' {
		dots++
	}
	for i := 1; i < dots; i++ {
		dir = path.Dir(dir)
	}
	rest := strings.ReplaceAll(importPath[dots:], ".", "/")
	return path.Join(dir, rest)
}

// rustUseBase converts a crate-local use path into a repository-relative
// file path without extension. crate:: is anchored at src/, the dominant
// crate layout.
func rustUseBase(dir, importPath string) string {
	switch {
	case strings.HasPrefix(importPath, "crate::"):
		return "src/" + strings.ReplaceAll(strings.TrimPrefix(importPath, "crate::"), "::", "/")
	case strings.HasPrefix(importPath, "self::"):
		return path.Join(dir, strings.ReplaceAll(strings.TrimPrefix(importPath, "self::"), "::", "/"))
	case strings.HasPrefix(importPath, "super::"):
		return path.Join(path.Dir(dir), strings.ReplaceAll(strings.TrimPrefix(importPath, "super::"), "::", "/"))
	default:
		return ""
	}
}
