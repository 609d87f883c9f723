package types

import (
	"path/filepath"
	"strings"
)

// Language is the detected language tag for an indexed file.
type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangPython     Language = "python"
	LangGo         Language = "go"
	LangJava       Language = "java"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangRuby       Language = "ruby"
	LangRust       Language = "rust"
	LangUnknown    Language = "unknown"
)

// extensionLanguages maps file extensions to language tags.
var extensionLanguages = map[string]Language{
	".js":   LangJavaScript,
	".jsx":  LangJavaScript,
	".mjs":  LangJavaScript,
	".cjs":  LangJavaScript,
	".ts":   LangTypeScript,
	".tsx":  LangTypeScript,
	".py":   LangPython,
	".pyw":  LangPython,
	".go":   LangGo,
	".java": LangJava,
	".c":    LangC,
	".h":    LangC,
	".cc":   LangCPP,
	".cpp":  LangCPP,
	".cxx":  LangCPP,
	".hpp":  LangCPP,
	".rb":   LangRuby,
	".rs":   LangRust,
}

// DetectLanguage maps a file path to a language tag by extension.
// Unmapped extensions yield LangUnknown, never an error.
func DetectLanguage(path string) Language {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}
	return LangUnknown
}

// BraceDelimited reports whether the language uses brace-delimited blocks.
// Python and Ruby block extents are computed by indent scanning instead.
func (l Language) BraceDelimited() bool {
	return l != LangPython && l != LangRuby && l != LangUnknown
}
