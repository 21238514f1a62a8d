package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestNewRejectsInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
		wantErr   bool
	}{
		{name: "defaults", chunkSize: 500, overlap: 50, wantErr: false},
		{name: "zero overlap", chunkSize: 10, overlap: 0, wantErr: false},
		{name: "overlap equals chunk size", chunkSize: 50, overlap: 50, wantErr: true},
		{name: "overlap above chunk size", chunkSize: 50, overlap: 60, wantErr: true},
		{name: "negative overlap", chunkSize: 50, overlap: -1, wantErr: true},
		{name: "zero chunk size", chunkSize: 0, overlap: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.chunkSize, tt.overlap)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfiguration)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFreeTextBelowChunkSizeIsSingleChunk(t *testing.T) {
	c, err := New(DefaultChunkSize, DefaultOverlap)
	require.NoError(t, err)

	text := "a short document that fits in one chunk"
	chunks := c.Chunk(text, "notes.txt")

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestFreeTextEmptyYieldsNoChunks(t *testing.T) {
	c, err := New(DefaultChunkSize, DefaultOverlap)
	require.NoError(t, err)

	assert.Empty(t, c.Chunk("", "broken.pdf"))
	assert.Empty(t, c.Chunk("   \n\t ", "broken.pdf"))
}

func TestFreeTextOverlappingWindows(t *testing.T) {
	c, err := New(DefaultChunkSize, DefaultOverlap)
	require.NoError(t, err)

	// 1200 words with a 450-word stride: windows 0-500, 450-950, 900-1200.
	chunks := c.Chunk(words(1200), "report.pdf")
	require.Len(t, chunks, 3)

	first := strings.Fields(chunks[0])
	second := strings.Fields(chunks[1])
	third := strings.Fields(chunks[2])
	assert.Len(t, first, 500)
	assert.Len(t, second, 500)
	assert.Len(t, third, 300)

	// Consecutive chunks share the trailing/leading overlap.
	assert.Equal(t, first[450:], second[:50])
	assert.Equal(t, second[450:], third[:50])
}

func TestFreeTextExactMultipleDoesNotEmitEmptyTrailingChunk(t *testing.T) {
	c, err := New(500, 50)
	require.NoError(t, err)

	chunks := c.Chunk(words(900), "long.docx")
	require.Len(t, chunks, 2)
	assert.Len(t, strings.Fields(chunks[1]), 450)
}

func TestFlatTableChunksRepeatHeader(t *testing.T) {
	c, err := New(2, 0)
	require.NoError(t, err)

	text := "id, name\n1, alice\n2, bob\n3, carol"
	chunks := c.Chunk(text, "people.csv")

	require.Len(t, chunks, 2)
	for _, chunk := range chunks {
		assert.True(t, strings.HasPrefix(chunk, "id, name\n"), "chunk must start with the header: %q", chunk)
	}
	assert.Equal(t, "id, name\n1, alice\n2, bob", chunks[0])
	assert.Equal(t, "id, name\n3, carol", chunks[1])
}

func TestTableDumpChunksRepeatTableNameAndHeader(t *testing.T) {
	c, err := New(2, 0)
	require.NoError(t, err)

	text := "Table: users\nid, email\n1, a@x.io\n2, b@x.io\n3, c@x.io\n\nTable: orders\nid, total\n10, 99.50"
	chunks := c.Chunk(text, "shop.sqlite")

	require.Len(t, chunks, 3)
	assert.True(t, strings.HasPrefix(chunks[0], "Table: users\nid, email\n"))
	assert.True(t, strings.HasPrefix(chunks[1], "Table: users\nid, email\n"))
	assert.Equal(t, "Table: orders\nid, total\n10, 99.50", chunks[2])
}

func TestExtensionDispatchIsCaseInsensitive(t *testing.T) {
	c, err := New(2, 0)
	require.NoError(t, err)

	text := "id, name\n1, alice\n2, bob\n3, carol"
	chunks := c.Chunk(text, "PEOPLE.CSV")
	require.Len(t, chunks, 2)
	assert.True(t, strings.HasPrefix(chunks[1], "id, name\n"))
}
