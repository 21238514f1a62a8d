package implementation

import (
	"context"

	"ai-agent-be/internal/model"
	"ai-agent-be/pkg/vectorindex"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// PgVectorStore keeps per-user document embeddings in Postgres with the
// pgvector extension. It is the alternative to the on-disk index for
// deployments that already run the database.
type PgVectorStore struct {
	db *gorm.DB
}

func NewPgVectorStore(db *gorm.DB) *PgVectorStore {
	return &PgVectorStore{db: db}
}

var _ vectorindex.Store = (*PgVectorStore)(nil)

func (s *PgVectorStore) Insert(ctx context.Context, userId uuid.UUID, entries []vectorindex.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	models := make([]*model.DocumentEmbedding, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	fileIds := make([]string, 0, len(entries))
	for _, entry := range entries {
		if fileId := entry.Chunk.Metadata.FileId; !seen[fileId] {
			seen[fileId] = true
			fileIds = append(fileIds, fileId)
		}
		models = append(models, &model.DocumentEmbedding{
			Id:             entry.Id,
			UserId:         userId,
			Document:       entry.Chunk.Content,
			EmbeddingValue: pgvector.NewVector(entry.Vector),
			Filename:       entry.Chunk.Metadata.Filename,
			FolderPath:     entry.Chunk.Metadata.FolderPath,
			FileId:         entry.Chunk.Metadata.FileId,
		})
	}

	// A re-upload supersedes the file's old chunks instead of piling new
	// ones next to them.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("user_id = ? AND file_id IN ?", userId, fileIds).
			Delete(&model.DocumentEmbedding{}).Error; err != nil {
			return err
		}
		return tx.CreateInBatches(models, 100).Error
	})
}

type scoredEmbedding struct {
	model.DocumentEmbedding
	Similarity float64
}

func (s *PgVectorStore) Search(ctx context.Context, userId uuid.UUID, vector []float32, k int, minScore float64) ([]vectorindex.ScoredChunk, error) {
	if k <= 0 {
		k = 5
	}

	queryVector := pgvector.NewVector(vector)

	var rows []scoredEmbedding
	// Cosine distance via pgvector: similarity = 1 - (a <=> b). The threshold
	// and ordering both live in SQL so LIMIT applies to the best rows.
	err := s.db.WithContext(ctx).
		Model(&model.DocumentEmbedding{}).
		Select("*, 1 - (embedding_value <=> ?) AS similarity", queryVector).
		Where("user_id = ?", userId).
		Where("1 - (embedding_value <=> ?) > ?", queryVector, minScore).
		Order("similarity DESC").
		Limit(k).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	results := make([]vectorindex.ScoredChunk, 0, len(rows))
	for _, row := range rows {
		results = append(results, vectorindex.ScoredChunk{
			Chunk: vectorindex.DocumentChunk{
				Content: row.Document,
				Metadata: vectorindex.ChunkMetadata{
					Filename:   row.Filename,
					FolderPath: row.FolderPath,
					FileId:     row.FileId,
				},
			},
			Similarity: row.Similarity,
		})
	}
	return results, nil
}

func (s *PgVectorStore) Clear(ctx context.Context, userId uuid.UUID) error {
	return s.db.WithContext(ctx).Unscoped().
		Where("user_id = ?", userId).
		Delete(&model.DocumentEmbedding{}).Error
}

func (s *PgVectorStore) Chunks(ctx context.Context, userId uuid.UUID) ([]vectorindex.DocumentChunk, error) {
	var models []*model.DocumentEmbedding
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	chunks := make([]vectorindex.DocumentChunk, 0, len(models))
	for _, m := range models {
		chunks = append(chunks, vectorindex.DocumentChunk{
			Content: m.Document,
			Metadata: vectorindex.ChunkMetadata{
				Filename:   m.Filename,
				FolderPath: m.FolderPath,
				FileId:     m.FileId,
			},
		})
	}
	return chunks, nil
}
