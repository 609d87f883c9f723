package extractor

import (
	"regexp"

	"codescope/pkg/types"
)

// symbolRule matches one declaration form. The first capture group is the
// symbol name.
type symbolRule struct {
	kind types.SymbolKind
	re   *regexp.Regexp

	// singleLine declarations span only their own line (variables, aliases)
	singleLine bool
	// methodWhenIndented reclassifies the match as a method when the
	// declaration line is indented (Python def, Rust fn inside impl)
	methodWhenIndented bool
	// requireBrace rejects matches with no opening brace on the declaration
	// line or the next (C prototypes vs definitions)
	requireBrace bool
}

// symbolTable holds the ordered rules for one language. Rule order matters:
// the first match on a line wins, so more specific forms come first.
type symbolTable struct {
	rules    []symbolRule
	keywords map[string]bool // names that are control flow, not declarations
}

var cFamilyKeywords = map[string]bool{
	"if": true, "else": true, "for": true, "while": true, "switch": true,
	"catch": true, "do": true, "return": true, "sizeof": true, "new": true,
	"delete": true, "typeof": true, "function": true,
}

var jsSymbolTable = symbolTable{
	keywords: cFamilyKeywords,
	rules: []symbolRule{
		{
			kind: types.KindFunction,
			re:   regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)`),
		},
		{
			// Arrow functions and function expressions bound to a name
			kind: types.KindFunction,
			re:   regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s+)?(?:\([^)]*\)|[A-Za-z_$][\w$]*)\s*=>`),
		},
		{
			kind: types.KindClass,
			re:   regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)`),
		},
		{
			kind: types.KindInterface,
			re:   regexp.MustCompile(`^\s*(?:export\s+)?(?:declare\s+)?interface\s+([A-Za-z_$][\w$]*)`),
		},
		{
			kind:       types.KindType,
			re:         regexp.MustCompile(`^\s*(?:export\s+)?type\s+([A-Za-z_$][\w$]*)\s*=`),
			singleLine: true,
		},
		{
			kind:       types.KindVariable,
			re:         regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)`),
			singleLine: true,
		},
		{
			// Class methods: indented name(...) { with optional modifiers
			kind: types.KindMethod,
			re:   regexp.MustCompile(`^\s+(?:(?:public|private|protected|static|async|readonly|get|set)\s+)*([A-Za-z_$][\w$]*)\s*\([^)]*\)\s*\{`),
		},
	},
}

var pySymbolTable = symbolTable{
	keywords: map[string]bool{},
	rules: []symbolRule{
		{
			kind:               types.KindFunction,
			re:                 regexp.MustCompile(`^\s*(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`),
			methodWhenIndented: true,
		},
		{
			kind: types.KindClass,
			re:   regexp.MustCompile(`^\s*class\s+([A-Za-z_]\w*)\s*[(:]`),
		},
		{
			// Module-level assignments only
			kind:       types.KindVariable,
			re:         regexp.MustCompile(`^([A-Za-z_]\w*)\s*(?::\s*[^=]+)?=[^=]`),
			singleLine: true,
		},
	},
}

var goSymbolTable = symbolTable{
	keywords: map[string]bool{},
	rules: []symbolRule{
		{
			kind: types.KindMethod,
			re:   regexp.MustCompile(`^func\s+\([^)]+\)\s+([A-Za-z_]\w*)\s*\(`),
		},
		{
			kind: types.KindFunction,
			re:   regexp.MustCompile(`^func\s+([A-Za-z_]\w*)\s*\(`),
		},
		{
			kind: types.KindInterface,
			re:   regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s+interface\b`),
		},
		{
			kind: types.KindClass,
			re:   regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s+struct\b`),
		},
		{
			kind:       types.KindType,
			re:         regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s+`),
			singleLine: true,
		},
		{
			kind:       types.KindVariable,
			re:         regexp.MustCompile(`^(?:var|const)\s+([A-Za-z_]\w*)`),
			singleLine: true,
		},
	},
}

var javaSymbolTable = symbolTable{
	keywords: cFamilyKeywords,
	rules: []symbolRule{
		{
			kind: types.KindClass,
			re:   regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|final|abstract)\s+)*class\s+([A-Za-z_]\w*)`),
		},
		{
			kind: types.KindInterface,
			re:   regexp.MustCompile(`^\s*(?:(?:public|private|protected|static)\s+)*interface\s+([A-Za-z_]\w*)`),
		},
		{
			kind: types.KindType,
			re:   regexp.MustCompile(`^\s*(?:(?:public|private|protected|static)\s+)*enum\s+([A-Za-z_]\w*)`),
		},
		{
			kind: types.KindMethod,
			re:   regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|final|abstract|synchronized|native)\s+)+[\w<>,\[\]]+\s+([A-Za-z_]\w*)\s*\([^)]*\)\s*(?:throws\s+[\w.,\s]+)?\{`),
		},
	},
}

var cSymbolTable = symbolTable{
	keywords: cFamilyKeywords,
	rules: []symbolRule{
		{
			kind: types.KindClass,
			re:   regexp.MustCompile(`^\s*(?:typedef\s+)?struct\s+([A-Za-z_]\w*)`),
		},
		{
			kind:       types.KindType,
			re:         regexp.MustCompile(`^\s*typedef\s+.*\b([A-Za-z_]\w*)\s*;`),
			singleLine: true,
		},
		{
			// Function definitions: return type, name, args, then a block.
			// requireBrace excludes prototypes.
			kind:         types.KindFunction,
			re:           regexp.MustCompile(`^[A-Za-z_][\w\s\*]*?[\s\*]([A-Za-z_]\w*)\s*\([^;{}]*\)?\s*\{?\s*$`),
			requireBrace: true,
		},
	},
}

var cppSymbolTable = symbolTable{
	keywords: cFamilyKeywords,
	rules: []symbolRule{
		{
			kind: types.KindClass,
			re:   regexp.MustCompile(`^\s*(?:template\s*<[^>]*>\s*)?class\s+([A-Za-z_]\w*)`),
		},
		{
			kind: types.KindClass,
			re:   regexp.MustCompile(`^\s*(?:typedef\s+)?struct\s+([A-Za-z_]\w*)`),
		},
		{
			kind:         types.KindFunction,
			re:           regexp.MustCompile(`^[A-Za-z_][\w:<>,\s\*&]*?[\s\*&]([A-Za-z_]\w*)\s*\([^;{}]*\)?\s*(?:const\s*)?\{?\s*$`),
			requireBrace: true,
		},
	},
}

var rubySymbolTable = symbolTable{
	keywords: map[string]bool{},
	rules: []symbolRule{
		{
			kind:               types.KindFunction,
			re:                 regexp.MustCompile(`^\s*def\s+(?:self\.)?([A-Za-z_]\w*[?!]?)`),
			methodWhenIndented: true,
		},
		{
			kind: types.KindClass,
			re:   regexp.MustCompile(`^\s*class\s+([A-Z]\w*)`),
		},
		{
			kind: types.KindType,
			re:   regexp.MustCompile(`^\s*module\s+([A-Z]\w*)`),
		},
	},
}

var rustSymbolTable = symbolTable{
	keywords: map[string]bool{},
	rules: []symbolRule{
		{
			kind:               types.KindFunction,
			re:                 regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?(?:unsafe\s+)?fn\s+([A-Za-z_]\w*)`),
			methodWhenIndented: true,
		},
		{
			kind: types.KindClass,
			re:   regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?struct\s+([A-Za-z_]\w*)`),
		},
		{
			kind: types.KindInterface,
			re:   regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?trait\s+([A-Za-z_]\w*)`),
		},
		{
			kind: types.KindType,
			re:   regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?enum\s+([A-Za-z_]\w*)`),
		},
		{
			kind:       types.KindVariable,
			re:         regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:static|const)\s+([A-Z_][A-Z0-9_]*)`),
			singleLine: true,
		},
	},
}

// symbolTables dispatches extraction by language tag. TypeScript shares the
// JavaScript table; its extra forms (interface, type alias) are in the same
// rule set and simply never match JS sources.
var symbolTables = map[types.Language]symbolTable{
	types.LangJavaScript: jsSymbolTable,
	types.LangTypeScript: jsSymbolTable,
	types.LangPython:     pySymbolTable,
	types.LangGo:         goSymbolTable,
	types.LangJava:       javaSymbolTable,
	types.LangC:          cSymbolTable,
	types.LangCPP:        cppSymbolTable,
	types.LangRuby:       rubySymbolTable,
	types.LangRust:       rustSymbolTable,
}
