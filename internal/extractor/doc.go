// Package extractor locates symbols and import relationships in source text
// using per-language pattern tables.
//
// Extraction is deliberately pattern-based, not a full parse. Each supported
// language has an ordered table of declaration rules; block extents are
// computed by brace counting for C-like syntax and indent scanning for
// indentation-delimited syntax. Ambiguous or malformed code degrades to
// partial or missing symbols rather than failing the file.
//
// Supported languages: JavaScript, TypeScript, Python, Go, Java, C, C++,
// Ruby, Rust. Anything else yields empty results, never an error.
//
//	e := extractor.New()
//	symbols, _ := e.ExtractSymbols(text, types.LangJavaScript)
//	deps, _ := e.ExtractDependencies(text, types.LangJavaScript, "src/app.js")
package extractor
