package extractor

import "strings"

// braceBlockEnd computes the (endLine, endColumn) of a brace-delimited block
// opened on or just after declLine (0-based). Falls back to the end of the
// declaration line when no block opens within the next two lines. Brace
// counting skips string and character literals but is otherwise textual:
// braces inside comments can skew the result, which is acceptable for
// best-effort extraction.
func braceBlockEnd(lines []string, declLine int) (endLine, endCol int) {
	depth := 0
	opened := false

	for i := declLine; i < len(lines); i++ {
		if !opened && i > declLine+2 {
			break
		}
		line := lines[i]
		var inString rune
		escaped := false

		for j, r := range line {
			if escaped {
				escaped = false
				continue
			}
			if inString != 0 {
				switch r {
				case '\\':
					escaped = true
				case inString:
					inString = 0
				}
				continue
			}
			switch r {
			case '"', '\'', '`':
				inString = r
			case '{':
				depth++
				opened = true
			case '}':
				depth--
				if opened && depth == 0 {
					return i + 1, j + 2
				}
			}
		}
	}

	if !opened {
		return declLine + 1, len(lines[declLine]) + 1
	}
	// Unbalanced braces: treat the block as running to end of file
	last := len(lines) - 1
	return last + 1, len(lines[last]) + 1
}

// braceOpensBlock reports whether a block opens on declLine or the next
// non-blank line. Used to reject C prototypes matched by definition rules.
func braceOpensBlock(lines []string, declLine int) bool {
	if strings.Contains(lines[declLine], "{") {
		return true
	}
	for i := declLine + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		return strings.HasPrefix(trimmed, "{")
	}
	return false
}

// indentBlockEnd computes the (endLine, endColumn) of an
// indentation-delimited block: the run of following lines indented deeper
// than the declaration. Blank lines inside the block are included; the block
// ends at its last non-blank line.
func indentBlockEnd(lines []string, declLine int) (endLine, endCol int) {
	declIndent := indentOf(lines[declLine])
	last := declLine

	for i := declLine + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		if indentOf(lines[i]) <= declIndent {
			break
		}
		last = i
	}

	return last + 1, len(lines[last]) + 1
}
