package embedder

import (
	"regexp"
	"strings"

	"codescope/pkg/types"
)

var (
	blockCommentPattern = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentPattern  = regexp.MustCompile(`//[^\n]*`)
	hashCommentPattern  = regexp.MustCompile(`#[^\n]*`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
)

// PreprocessCode strips comments per language family and collapses
// whitespace, reducing noise in the embedded vector. Unknown languages get
// whitespace collapsing only.
func PreprocessCode(text string, lang types.Language) string {
	switch lang {
	case types.LangPython, types.LangRuby:
		text = hashCommentPattern.ReplaceAllString(text, " ")
	case types.LangJavaScript, types.LangTypeScript, types.LangGo,
		types.LangJava, types.LangC, types.LangCPP, types.LangRust:
		text = blockCommentPattern.ReplaceAllString(text, " ")
		text = lineCommentPattern.ReplaceAllString(text, " ")
	}

	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}
