package chunker

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidConfiguration is returned when the chunker would advance by a
// non-positive step and loop forever.
var ErrInvalidConfiguration = errors.New("chunker: overlap must be strictly less than chunk size")

const (
	DefaultChunkSize = 500
	DefaultOverlap   = 50
)

// Chunker splits extracted document text into bounded, self-describing
// chunks. The strategy is picked by file extension: sqlite table dumps and
// flat tabular files are chunked by rows with their header re-prefixed,
// everything else by overlapping word windows.
type Chunker struct {
	chunkSize int
	overlap   int
}

func New(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunker: chunk size must be positive, got %d: %w", chunkSize, ErrInvalidConfiguration)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("chunker: overlap %d with chunk size %d: %w", overlap, chunkSize, ErrInvalidConfiguration)
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk splits text into chunks. Empty or whitespace-only text yields no
// chunks so a failed extraction never aborts an upload batch.
func (c *Chunker) Chunk(text, filename string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	switch ext(filename) {
	case "db", "sqlite":
		return c.chunkTableDump(text)
	case "csv", "xlsx", "xls":
		return c.chunkFlatTable(text)
	default:
		return c.chunkFreeText(text)
	}
}

// chunkTableDump handles pre-serialized sqlite dumps: blank-line-delimited
// table blocks whose first line is the table name and second the header.
// Every emitted chunk is re-prefixed with both so it stays self-describing.
func (c *Chunker) chunkTableDump(text string) []string {
	var chunks []string
	for _, table := range strings.Split(text, "\n\n") {
		rows := splitLines(table)
		if len(rows) == 0 {
			continue
		}
		tableName := rows[0]
		header := ""
		if len(rows) > 1 {
			header = rows[1]
		}
		if len(rows) <= 2 {
			chunks = append(chunks, strings.Join([]string{tableName, header}, "\n"))
			continue
		}
		for i := 2; i < len(rows); i += c.chunkSize {
			end := i + c.chunkSize
			if end > len(rows) {
				end = len(rows)
			}
			parts := append([]string{tableName, header}, rows[i:end]...)
			chunks = append(chunks, strings.Join(parts, "\n"))
		}
	}
	return chunks
}

// chunkFlatTable handles csv/xlsx text: a header row followed by data rows.
func (c *Chunker) chunkFlatTable(text string) []string {
	rows := splitLines(text)
	if len(rows) == 0 {
		return nil
	}
	header := rows[0]
	if len(rows) == 1 {
		return []string{header}
	}

	var chunks []string
	for i := 1; i < len(rows); i += c.chunkSize {
		end := i + c.chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		parts := append([]string{header}, rows[i:end]...)
		chunks = append(chunks, strings.Join(parts, "\n"))
	}
	return chunks
}

// chunkFreeText splits on whitespace tokens. Text below the chunk size is a
// single chunk equal to the input; longer text becomes overlapping windows
// advancing by chunkSize-overlap tokens so consecutive chunks always share
// the overlap.
func (c *Chunker) chunkFreeText(text string) []string {
	words := strings.Fields(text)
	if len(words) < c.chunkSize {
		return []string{text}
	}

	step := c.chunkSize - c.overlap
	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}

func splitLines(s string) []string {
	var rows []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, line)
	}
	return rows
}

func ext(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
