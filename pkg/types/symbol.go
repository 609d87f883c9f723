package types

import "errors"

// SymbolKind represents the type of extracted code symbol
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindClass     SymbolKind = "class"
	KindMethod    SymbolKind = "method"
	KindVariable  SymbolKind = "variable"
	KindInterface SymbolKind = "interface"
	KindType      SymbolKind = "type"
	KindProperty  SymbolKind = "property"
)

// Position represents a location in source text
type Position struct {
	Line   int // 1-based
	Column int // 1-based
}

// Symbol represents a named structural element extracted from a source file.
// Extraction is pattern-based, so positions and kinds are best-effort.
type Symbol struct {
	// Identification
	Name string
	Kind SymbolKind

	// Location
	Start Position
	End   Position

	// Content
	Definition string // excerpt of the declaration line
	DocComment string

	// Declaration-line modifier keywords (export, async, static, ...).
	// Order-irrelevant; compared as a set.
	Modifiers []string
}

// ValidateKind checks if the symbol kind is valid
func (s *Symbol) ValidateKind() error {
	switch s.Kind {
	case KindFunction, KindClass, KindMethod, KindVariable, KindInterface, KindType, KindProperty:
		return nil
	default:
		return errors.New("invalid symbol kind")
	}
}

// HasModifier reports whether the symbol carries the given modifier keyword
func (s *Symbol) HasModifier(mod string) bool {
	for _, m := range s.Modifiers {
		if m == mod {
			return true
		}
	}
	return false
}

// Validate performs comprehensive validation of the symbol
func (s *Symbol) Validate() error {
	if s.Name == "" {
		return errors.New("symbol name is required")
	}

	if err := s.ValidateKind(); err != nil {
		return err
	}

	if s.Start.Line <= 0 || s.End.Line <= 0 {
		return errors.New("invalid position: line numbers must be positive")
	}

	if s.Start.Line > s.End.Line {
		return errors.New("invalid position: start line must be before or equal to end line")
	}

	return nil
}
