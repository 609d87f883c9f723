// Package chunker splits file content into line-aligned chunks for embedding.
package chunker

import (
	"strings"

	"codescope/pkg/types"
)

const (
	// DefaultMaxChunkSize is the maximum chunk length in characters
	DefaultMaxChunkSize = 500
)

// Chunker splits text into chunks of at most maxSize characters. Chunks
// never split mid-line: a single line longer than maxSize becomes its own
// oversized chunk.
type Chunker struct {
	maxSize int
}

// New creates a Chunker with the default size limit
func New() *Chunker {
	return NewWithSize(DefaultMaxChunkSize)
}

// NewWithSize creates a Chunker with a custom size limit
func NewWithSize(maxSize int) *Chunker {
	if maxSize <= 0 {
		maxSize = DefaultMaxChunkSize
	}
	return &Chunker{maxSize: maxSize}
}

// Chunk splits content into ordered chunks. Indices are contiguous from 0,
// line numbers are 1-based inclusive. Whitespace-only runs are skipped, so
// blank regions of a file produce no chunks.
func (c *Chunker) Chunk(content string) []types.Chunk {
	if content == "" {
		return nil
	}

	lines := strings.Split(content, "\n")
	// A trailing newline yields an empty final element, not a real line
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	chunks := make([]types.Chunk, 0)
	var (
		buf       strings.Builder
		startLine int
		endLine   int
	)

	flush := func() {
		text := buf.String()
		if strings.TrimSpace(text) != "" {
			chunks = append(chunks, types.Chunk{
				Index:     len(chunks),
				Content:   text,
				StartLine: startLine,
				EndLine:   endLine,
				Kind:      types.ChunkCode,
			})
		}
		buf.Reset()
		startLine = 0
	}

	for i, line := range lines {
		lineNo := i + 1

		// +1 accounts for the newline joining the buffered text to this line
		if buf.Len() > 0 && buf.Len()+1+len(line) > c.maxSize {
			flush()
		}

		if buf.Len() == 0 {
			startLine = lineNo
		} else {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)
		endLine = lineNo
	}
	flush()

	return chunks
}
