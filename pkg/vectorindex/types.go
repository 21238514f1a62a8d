package vectorindex

import (
	"context"

	"github.com/google/uuid"
)

// ChunkMetadata identifies the uploaded file a chunk came from. Every chunk
// of one upload carries the same file id; re-uploads supersede by file id.
type ChunkMetadata struct {
	Filename   string `json:"filename"`
	FolderPath string `json:"folder_path"`
	FileId     string `json:"file_id"`
}

// DocumentChunk is the unit indexed for retrieval.
type DocumentChunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// Entry couples a chunk with its embedding inside a user's index.
type Entry struct {
	Id     uuid.UUID
	Vector []float32
	Chunk  DocumentChunk
}

// ScoredChunk is a search hit with its similarity score (higher is closer).
type ScoredChunk struct {
	Chunk      DocumentChunk
	Similarity float64
}

// FileRecord is one deduplicated uploaded file in the inventory.
type FileRecord struct {
	Id         string `json:"id"`
	Name       string `json:"name"`
	FolderPath string `json:"folderPath"`
}

// FolderGroup groups files under the top-level segment of their folder path.
type FolderGroup struct {
	Id    string       `json:"id"`
	Name  string       `json:"name"`
	Files []FileRecord `json:"files"`
}

// Inventory is the two-level upload listing: loose files plus folder groups.
type Inventory struct {
	Files   []FileRecord  `json:"files"`
	Folders []FolderGroup `json:"folders"`
}

// Store persists and queries per-user index state. Implementations must
// guarantee that no two users ever share storage: the disk store derives the
// file path from the user id alone, the pgvector store scopes every query by
// user id. Insert supersedes by file id: entries carrying an already indexed
// file id replace that file's old entries instead of accumulating next to
// them.
type Store interface {
	Insert(ctx context.Context, userId uuid.UUID, entries []Entry) error
	Search(ctx context.Context, userId uuid.UUID, vector []float32, k int, minScore float64) ([]ScoredChunk, error)
	Clear(ctx context.Context, userId uuid.UUID) error
	Chunks(ctx context.Context, userId uuid.UUID) ([]DocumentChunk, error)
}
