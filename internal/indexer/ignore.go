package indexer

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnoreFileName is the repository-local ignore file, one glob per line
const IgnoreFileName = ".codescopeignore"

// defaultIgnorePatterns are always active, before any repository-local or
// caller-supplied additions
var defaultIgnorePatterns = []string{
	"**/.git/**",
	"**/.hg/**",
	"**/.svn/**",
	"**/node_modules/**",
	"**/vendor/**",
	"**/bower_components/**",
	"**/dist/**",
	"**/build/**",
	"**/target/**",
	"**/__pycache__/**",
	"**/.codescope/**",
	"*.min.js",
	"*.min.css",
	"*.lock",
}

// IgnoreSet evaluates glob patterns against repository-relative paths
type IgnoreSet struct {
	patterns []string
}

// NewIgnoreSet builds an ignore set from the defaults plus extra patterns
func NewIgnoreSet(extra ...string) *IgnoreSet {
	patterns := make([]string, 0, len(defaultIgnorePatterns)+len(extra))
	patterns = append(patterns, defaultIgnorePatterns...)
	patterns = append(patterns, extra...)
	return &IgnoreSet{patterns: patterns}
}

// LoadIgnoreSet builds an ignore set from the defaults, the repository's
// ignore file if present, and extra caller-supplied patterns. A missing
// ignore file is not an error.
func LoadIgnoreSet(root string, extra ...string) (*IgnoreSet, error) {
	set := NewIgnoreSet(extra...)

	f, err := os.Open(filepath.Join(root, IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set.patterns = append(set.patterns, line)
	}
	return set, scanner.Err()
}

// Match reports whether a repository-relative path is ignored. Patterns
// without a path separator match against the base name, so "*.min.js"
// applies at any depth.
func (s *IgnoreSet) Match(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	base := filepath.Base(relPath)

	for _, pattern := range s.patterns {
		// Directory shorthand: "foo/" means everything under foo
		if strings.HasSuffix(pattern, "/") {
			pattern += "**"
		}
		var target string
		if strings.Contains(pattern, "/") {
			target = relPath
		} else {
			target = base
		}
		if ok, err := doublestar.Match(pattern, target); err == nil && ok {
			return true
		}
	}
	return false
}

// MatchDir reports whether a directory is ignored entirely, so the walk
// can prune it. "node_modules/**" ignores the directory node_modules.
func (s *IgnoreSet) MatchDir(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, pattern := range s.patterns {
		trimmed := strings.TrimSuffix(strings.TrimSuffix(pattern, "/**"), "/")
		if trimmed == pattern {
			continue
		}
		if ok, err := doublestar.Match(trimmed, relPath); err == nil && ok {
			return true
		}
	}
	return s.Match(relPath)
}

// Patterns returns the active pattern list
func (s *IgnoreSet) Patterns() []string {
	return s.patterns
}
