package types

import "errors"

// ImportKind tags the mechanism through which a dependency was declared
type ImportKind string

const (
	// ImportDeclarative covers import statements (ES modules, Python, Go, Java)
	ImportDeclarative ImportKind = "import"
	// ImportRequire covers CommonJS require() and dynamic import() calls
	ImportRequire ImportKind = "require"
	// ImportInclude covers textual #include directives
	ImportInclude ImportKind = "include"
)

// WildcardImport marks an imported-symbol list entry that binds everything
// the target module exports ("import *", "* as ns").
const WildcardImport = "*"

// Dependency represents an import/include relationship declared in a file.
// The target stays unresolved until the pipeline matches ImportPath against
// an indexed file.
type Dependency struct {
	// ImportPath is the literal path/module string as written in source.
	ImportPath string

	Kind ImportKind

	// IsExternal is true when ImportPath is not a relative/local reference
	// into the indexed repository.
	IsExternal bool

	// ImportedSymbols lists the names bound by the import. May contain
	// WildcardImport. Empty for bare imports.
	ImportedSymbols []string

	// Line is the 1-based line of the import statement.
	Line int
}

// Validate checks the dependency record
func (d *Dependency) Validate() error {
	if d.ImportPath == "" {
		return errors.New("import path is required")
	}
	switch d.Kind {
	case ImportDeclarative, ImportRequire, ImportInclude:
		return nil
	default:
		return errors.New("invalid import kind")
	}
}
