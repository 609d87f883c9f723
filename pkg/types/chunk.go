package types

import "errors"

// ChunkKind classifies what a chunk's line range covers
type ChunkKind string

const (
	ChunkCode   ChunkKind = "code"
	ChunkSymbol ChunkKind = "symbol"
)

// Chunk is a contiguous line-ranged slice of a file's text, the unit of
// embedding. Chunks never split mid-line.
type Chunk struct {
	// Index is the 0-based ordering of the chunk within its file.
	Index int

	Content string

	// Location (1-based, inclusive)
	StartLine int
	EndLine   int

	Kind ChunkKind
}

// Validate checks if the chunk is well-formed
func (c *Chunk) Validate() error {
	if c.Content == "" {
		return errors.New("chunk content cannot be empty")
	}

	if c.Index < 0 {
		return errors.New("chunk index must be >= 0")
	}

	if c.StartLine <= 0 || c.EndLine <= 0 {
		return errors.New("line numbers must be positive")
	}

	if c.StartLine > c.EndLine {
		return errors.New("start line must be before or equal to end line")
	}

	return nil
}
