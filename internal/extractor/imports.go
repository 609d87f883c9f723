package extractor

import (
	"regexp"
	"strings"

	"codescope/pkg/types"
)

// importExtractor scans a file's lines for import/include statements
type importExtractor func(lines []string) []types.Dependency

var importExtractors = map[types.Language]importExtractor{
	types.LangJavaScript: extractJSImports,
	types.LangTypeScript: extractJSImports,
	types.LangPython:     extractPythonImports,
	types.LangGo:         extractGoImports,
	types.LangJava:       extractJavaImports,
	types.LangC:          extractCIncludes,
	types.LangCPP:        extractCIncludes,
	types.LangRuby:       extractRubyRequires,
	types.LangRust:       extractRustUses,
}

var (
	jsImportFrom    = regexp.MustCompile(`^\s*import\s+(.+?)\s+from\s+['"]([^'"]+)['"]`)
	jsImportBare    = regexp.MustCompile(`^\s*import\s+['"]([^'"]+)['"]`)
	jsExportFrom    = regexp.MustCompile(`^\s*export\s+(?:\*(?:\s+as\s+\w+)?|\{[^}]*\})\s+from\s+['"]([^'"]+)['"]`)
	jsRequireBound  = regexp.MustCompile(`^\s*(?:const|let|var)\s+(\{[^}]*\}|[A-Za-z_$][\w$]*)\s*=\s*require\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	jsRequireCall   = regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	jsDynamicImport = regexp.MustCompile(`\bimport\s*\(\s*['"]([^'"]+)['"]\s*\)`)
)

func extractJSImports(lines []string) []types.Dependency {
	deps := make([]types.Dependency, 0)

	for i, line := range lines {
		lineNo := i + 1

		if m := jsImportFrom.FindStringSubmatch(line); m != nil {
			deps = append(deps, types.Dependency{
				ImportPath:      m[2],
				Kind:            types.ImportDeclarative,
				IsExternal:      !isRelativePath(m[2]),
				ImportedSymbols: parseImportClause(m[1]),
				Line:            lineNo,
			})
			continue
		}
		if m := jsImportBare.FindStringSubmatch(line); m != nil {
			deps = append(deps, types.Dependency{
				ImportPath: m[1],
				Kind:       types.ImportDeclarative,
				IsExternal: !isRelativePath(m[1]),
				Line:       lineNo,
			})
			continue
		}
		if m := jsExportFrom.FindStringSubmatch(line); m != nil {
			deps = append(deps, types.Dependency{
				ImportPath: m[1],
				Kind:       types.ImportDeclarative,
				IsExternal: !isRelativePath(m[1]),
				Line:       lineNo,
			})
			continue
		}
		if m := jsRequireBound.FindStringSubmatch(line); m != nil {
			deps = append(deps, types.Dependency{
				ImportPath:      m[2],
				Kind:            types.ImportRequire,
				IsExternal:      !isRelativePath(m[2]),
				ImportedSymbols: parseImportClause(m[1]),
				Line:            lineNo,
			})
			continue
		}
		if m := jsRequireCall.FindStringSubmatch(line); m != nil {
			deps = append(deps, types.Dependency{
				ImportPath: m[1],
				Kind:       types.ImportRequire,
				IsExternal: !isRelativePath(m[1]),
				Line:       lineNo,
			})
			continue
		}
		if m := jsDynamicImport.FindStringSubmatch(line); m != nil {
			deps = append(deps, types.Dependency{
				ImportPath: m[1],
				Kind:       types.ImportRequire,
				IsExternal: !isRelativePath(m[1]),
				Line:       lineNo,
			})
		}
	}

	return deps
}

// parseImportClause extracts bound names from an import clause: a default
// binding, a namespace binding (recorded as the wildcard marker), a named
// list with optional aliases, or a destructuring pattern.
func parseImportClause(clause string) []string {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return nil
	}

	var symbols []string

	if open := strings.Index(clause, "{"); open >= 0 {
		closing := strings.Index(clause, "}")
		if closing < 0 {
			closing = len(clause)
		}
		for _, part := range strings.Split(clause[open+1:closing], ",") {
			name := strings.TrimSpace(part)
			if name == "" {
				continue
			}
			// "orig as alias" binds the alias
			if fields := strings.Fields(name); len(fields) == 3 && fields[1] == "as" {
				name = fields[2]
			} else {
				name = fields[0]
			}
			symbols = append(symbols, name)
		}
		clause = strings.TrimSpace(strings.TrimSuffix(clause[:open], ","))
	}

	if strings.HasPrefix(clause, "*") {
		symbols = append(symbols, types.WildcardImport)
	} else if clause != "" {
		symbols = append(symbols, strings.TrimSuffix(clause, ","))
	}

	return symbols
}

var (
	pyFromImport = regexp.MustCompile(`^\s*from\s+(\S+)\s+import\s+(.+)`)
	pyImport     = regexp.MustCompile(`^\s*import\s+(.+)`)
)

func extractPythonImports(lines []string) []types.Dependency {
	deps := make([]types.Dependency, 0)

	for i, line := range lines {
		lineNo := i + 1

		if m := pyFromImport.FindStringSubmatch(line); m != nil {
			var symbols []string
			for _, part := range strings.Split(m[2], ",") {
				name := strings.Fields(strings.TrimSpace(part))
				if len(name) == 0 {
					continue
				}
				if name[0] == "*" {
					symbols = append(symbols, types.WildcardImport)
				} else if len(name) == 3 && name[1] == "as" {
					symbols = append(symbols, name[2])
				} else {
					symbols = append(symbols, name[0])
				}
			}
			deps = append(deps, types.Dependency{
				ImportPath:      m[1],
				Kind:            types.ImportDeclarative,
				IsExternal:      !strings.HasPrefix(m[1], "."),
				ImportedSymbols: symbols,
				Line:            lineNo,
			})
			continue
		}
		if m := pyImport.FindStringSubmatch(line); m != nil {
			for _, part := range strings.Split(m[1], ",") {
				fields := strings.Fields(strings.TrimSpace(part))
				if len(fields) == 0 {
					continue
				}
				deps = append(deps, types.Dependency{
					ImportPath: fields[0],
					Kind:       types.ImportDeclarative,
					IsExternal: !strings.HasPrefix(fields[0], "."),
					Line:       lineNo,
				})
			}
		}
	}

	return deps
}

var (
	goImportLine  = regexp.MustCompile(`^\s*import\s+(?:[\w.]+\s+)?"([^"]+)"`)
	goImportBlock = regexp.MustCompile(`^\s*(?:[\w.]+\s+)?"([^"]+)"`)
)

func extractGoImports(lines []string) []types.Dependency {
	deps := make([]types.Dependency, 0)
	inBlock := false

	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)

		switch {
		case inBlock:
			if strings.HasPrefix(trimmed, ")") {
				inBlock = false
				continue
			}
			if m := goImportBlock.FindStringSubmatch(line); m != nil {
				deps = append(deps, types.Dependency{
					ImportPath: m[1],
					Kind:       types.ImportDeclarative,
					IsExternal: !isRelativePath(m[1]),
					Line:       lineNo,
				})
			}
		case strings.HasPrefix(trimmed, "import ("):
			inBlock = true
		default:
			if m := goImportLine.FindStringSubmatch(line); m != nil {
				deps = append(deps, types.Dependency{
					ImportPath: m[1],
					Kind:       types.ImportDeclarative,
					IsExternal: !isRelativePath(m[1]),
					Line:       lineNo,
				})
			}
		}
	}

	return deps
}

var javaImport = regexp.MustCompile(`^\s*import\s+(?:static\s+)?([\w.]+(?:\.\*)?)\s*;`)

func extractJavaImports(lines []string) []types.Dependency {
	deps := make([]types.Dependency, 0)

	for i, line := range lines {
		m := javaImport.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		path := m[1]
		var symbols []string
		if strings.HasSuffix(path, ".*") {
			symbols = []string{types.WildcardImport}
			path = strings.TrimSuffix(path, ".*")
		} else if dot := strings.LastIndex(path, "."); dot >= 0 {
			symbols = []string{path[dot+1:]}
		}
		deps = append(deps, types.Dependency{
			ImportPath:      path,
			Kind:            types.ImportDeclarative,
			IsExternal:      true, // Java imports are package-based, never file-relative
			ImportedSymbols: symbols,
			Line:            i + 1,
		})
	}

	return deps
}

var cInclude = regexp.MustCompile(`^\s*#\s*include\s*([<"])([^>"]+)[>"]`)

func extractCIncludes(lines []string) []types.Dependency {
	deps := make([]types.Dependency, 0)

	for i, line := range lines {
		m := cInclude.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		deps = append(deps, types.Dependency{
			ImportPath: m[2],
			Kind:       types.ImportInclude,
			// Angle-bracket includes reference system headers
			IsExternal: m[1] == "<",
			Line:       i + 1,
		})
	}

	return deps
}

var rubyRequire = regexp.MustCompile(`^\s*require(_relative)?\s+['"]([^'"]+)['"]`)

func extractRubyRequires(lines []string) []types.Dependency {
	deps := make([]types.Dependency, 0)

	for i, line := range lines {
		m := rubyRequire.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		deps = append(deps, types.Dependency{
			ImportPath: m[2],
			Kind:       types.ImportRequire,
			IsExternal: m[1] != "_relative" && !isRelativePath(m[2]),
			Line:       i + 1,
		})
	}

	return deps
}

var rustUse = regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?use\s+([\w:]+)(?:::\{([^}]*)\})?`)

func extractRustUses(lines []string) []types.Dependency {
	deps := make([]types.Dependency, 0)

	for i, line := range lines {
		m := rustUse.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		path := strings.TrimSuffix(m[1], "::")
		var symbols []string
		if m[2] != "" {
			for _, part := range strings.Split(m[2], ",") {
				if name := strings.TrimSpace(part); name != "" {
					if name == "*" {
						name = types.WildcardImport
					}
					symbols = append(symbols, name)
				}
			}
		} else if sep := strings.LastIndex(path, "::"); sep >= 0 {
			symbols = []string{path[sep+2:]}
		}

		local := strings.HasPrefix(path, "crate") ||
			strings.HasPrefix(path, "self") ||
			strings.HasPrefix(path, "super")
		deps = append(deps, types.Dependency{
			ImportPath:      path,
			Kind:            types.ImportDeclarative,
			IsExternal:      !local,
			ImportedSymbols: symbols,
			Line:            i + 1,
		})
	}

	return deps
}

// isRelativePath reports whether an import string is a relative/local
// reference into the repository
func isRelativePath(path string) bool {
	return strings.HasPrefix(path, "./") ||
		strings.HasPrefix(path, "../") ||
		path == "." || path == ".."
}
