package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codescope/pkg/types"
)

func TestChunk_Empty(t *testing.T) {
	c := New()
	assert.Nil(t, c.Chunk(""))
	assert.Empty(t, c.Chunk("\n\n\n"))
	assert.Empty(t, c.Chunk("   \n\t\n"))
}

func TestChunk_SingleSmallFile(t *testing.T) {
	c := New()
	content := "function add(a, b) {\n  return a + b;\n}\n"

	chunks := c.Chunk(content)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "function add(a, b) {\n  return a + b;\n}", chunks[0].Content)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 3, chunks[0].EndLine)
	assert.Equal(t, types.ChunkCode, chunks[0].Kind)
}

func TestChunk_SplitsAtSizeLimit(t *testing.T) {
	c := NewWithSize(30)
	content := strings.Repeat("let value = compute();\n", 5)

	chunks := c.Chunk(content)
	require.NotEmpty(t, chunks)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.LessOrEqual(t, len(chunk.Content), 30)
		require.NoError(t, chunk.Validate())
	}

	// Line ranges cover the file without overlap
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 5, chunks[len(chunks)-1].EndLine)
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1].EndLine+1, chunks[i].StartLine)
	}
}

func TestChunk_NeverSplitsMidLine(t *testing.T) {
	c := NewWithSize(50)
	long := "const payload = " + strings.Repeat("x", 200) + ";"
	content := "const a = 1;\n" + long + "\nconst b = 2;\n"

	chunks := c.Chunk(content)
	require.Len(t, chunks, 3)

	// The oversized line stands alone, intact
	assert.Equal(t, long, chunks[1].Content)
	assert.Equal(t, 2, chunks[1].StartLine)
	assert.Equal(t, 2, chunks[1].EndLine)
}

func TestChunk_ContiguousIndices(t *testing.T) {
	c := NewWithSize(25)
	content := "a\n\n\nb\n" + strings.Repeat("line of code here\n", 10)

	chunks := c.Chunk(content)
	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
	}
}

func TestChunk_NoTrailingNewline(t *testing.T) {
	c := New()
	chunks := c.Chunk("const x = 1;")
	require.Len(t, chunks, 1)
	assert.Equal(t, "const x = 1;", chunks[0].Content)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 1, chunks[0].EndLine)
}
