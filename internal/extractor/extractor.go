package extractor

import (
	"strings"

	"codescope/pkg/types"
)

const (
	// maxDefinitionLen bounds the stored definition excerpt
	maxDefinitionLen = 200
)

// Extractor locates symbol declarations and import statements using
// per-language pattern tables. Extraction is best-effort: malformed code
// degrades to partial or missing symbols, never an error for the file.
type Extractor struct{}

// New creates an Extractor
func New() *Extractor {
	return &Extractor{}
}

// IsSupported reports whether symbol extraction rules exist for the language
func (e *Extractor) IsSupported(lang types.Language) bool {
	_, ok := symbolTables[lang]
	return ok
}

// ExtractSymbols scans text for declaration sites. Empty text or an
// unsupported language yields an empty result, never an error.
func (e *Extractor) ExtractSymbols(text string, lang types.Language) ([]types.Symbol, error) {
	table, ok := symbolTables[lang]
	if !ok || text == "" {
		return nil, nil
	}

	lines := strings.Split(text, "\n")
	symbols := make([]types.Symbol, 0)

	for i, line := range lines {
		for _, rule := range table.rules {
			loc := rule.re.FindStringSubmatchIndex(line)
			if loc == nil || loc[2] < 0 {
				continue
			}
			name := line[loc[2]:loc[3]]
			if table.keywords[name] {
				continue
			}
			if rule.requireBrace && !braceOpensBlock(lines, i) {
				continue
			}

			kind := rule.kind
			if rule.methodWhenIndented && indentOf(line) > 0 {
				kind = types.KindMethod
			}

			endLine, endCol := i+1, len(line)+1
			if !rule.singleLine {
				if lang.BraceDelimited() {
					endLine, endCol = braceBlockEnd(lines, i)
				} else {
					endLine, endCol = indentBlockEnd(lines, i)
				}
			}

			symbols = append(symbols, types.Symbol{
				Name:       name,
				Kind:       kind,
				Start:      types.Position{Line: i + 1, Column: indentOf(line) + 1},
				End:        types.Position{Line: endLine, Column: endCol},
				Definition: definitionExcerpt(line),
				DocComment: docCommentAbove(lines, i),
				Modifiers:  collectModifiers(line),
			})
			break // first matching rule wins for a line
		}
	}

	return symbols, nil
}

// ExtractDependencies scans text for import/include statements. The path
// argument is informational only; resolution against indexed files happens
// downstream.
func (e *Extractor) ExtractDependencies(text string, lang types.Language, path string) ([]types.Dependency, error) {
	extract, ok := importExtractors[lang]
	if !ok || text == "" {
		return nil, nil
	}
	return extract(strings.Split(text, "\n")), nil
}

// indentOf returns the count of leading whitespace characters, with tabs
// counted as one
func indentOf(line string) int {
	for i, r := range line {
		if r != ' ' && r != '\t' {
			return i
		}
	}
	return len(line)
}

func definitionExcerpt(line string) string {
	def := strings.TrimSpace(line)
	if len(def) > maxDefinitionLen {
		def = def[:maxDefinitionLen]
	}
	return def
}

// modifierKeywords is the bounded set collected from declaration lines
var modifierKeywords = map[string]bool{
	"export":       true,
	"default":      true,
	"async":        true,
	"static":       true,
	"public":       true,
	"private":      true,
	"protected":    true,
	"abstract":     true,
	"final":        true,
	"readonly":     true,
	"pub":          true,
	"override":     true,
	"virtual":      true,
	"synchronized": true,
	"native":       true,
	"extern":       true,
	"inline":       true,
	"unsafe":       true,
}

func collectModifiers(line string) []string {
	var modifiers []string
	seen := make(map[string]bool)
	for _, token := range strings.FieldsFunc(line, func(r rune) bool {
		return !(r == '_' || r == '$' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}) {
		if modifierKeywords[token] && !seen[token] {
			modifiers = append(modifiers, token)
			seen[token] = true
		}
	}
	return modifiers
}

// docCommentAbove collects the contiguous comment block immediately above
// a declaration line, stripped of comment markers
func docCommentAbove(lines []string, declLine int) string {
	var parts []string
	for i := declLine - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		switch {
		case strings.HasPrefix(trimmed, "///"):
			parts = append(parts, strings.TrimSpace(trimmed[3:]))
		case strings.HasPrefix(trimmed, "//"):
			parts = append(parts, strings.TrimSpace(trimmed[2:]))
		case strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, "#include"):
			parts = append(parts, strings.TrimSpace(trimmed[1:]))
		case strings.HasPrefix(trimmed, "*/"), strings.HasSuffix(trimmed, "*/"):
			text := strings.TrimSuffix(trimmed, "*/")
			text = strings.TrimPrefix(text, "/**")
			text = strings.TrimPrefix(text, "/*")
			text = strings.TrimPrefix(strings.TrimSpace(text), "*")
			if text = strings.TrimSpace(text); text != "" {
				parts = append(parts, text)
			}
		case strings.HasPrefix(trimmed, "*"):
			if text := strings.TrimSpace(strings.TrimPrefix(trimmed, "*")); text != "" {
				parts = append(parts, text)
			}
		case strings.HasPrefix(trimmed, "/**"), strings.HasPrefix(trimmed, "/*"):
			text := strings.TrimPrefix(trimmed, "/**")
			text = strings.TrimPrefix(text, "/*")
			if text = strings.TrimSpace(text); text != "" {
				parts = append(parts, text)
			}
			return joinReversed(parts)
		default:
			return joinReversed(parts)
		}
		// A block comment opener terminates the upward scan
		if strings.HasPrefix(trimmed, "/*") {
			return joinReversed(parts)
		}
	}
	return joinReversed(parts)
}

func joinReversed(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
