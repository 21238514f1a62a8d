package service

import (
	"context"

	"ai-agent-be/internal/dto"
	"ai-agent-be/internal/pkg/logger"
	"ai-agent-be/internal/pkg/serverutils"
	"ai-agent-be/pkg/chunker"
	"ai-agent-be/pkg/extract"
	"ai-agent-be/pkg/vectorindex"

	"github.com/google/uuid"
)

type UploadInput struct {
	Filename   string
	FolderPath string
	// FileId is the client-supplied stable id; empty means a fresh upload
	// and a server-minted id.
	FileId string
	Data   []byte
}

type IFileService interface {
	Upload(ctx context.Context, userId uuid.UUID, input *UploadInput) (*dto.UploadResponse, error)
	GetMetadata(ctx context.Context, userId uuid.UUID) (*dto.MetadataResponse, error)
	ClearRag(ctx context.Context, userId uuid.UUID) error
}

type fileService struct {
	index   *vectorindex.Manager
	chunker *chunker.Chunker
	logger  logger.ILogger
}

func NewFileService(index *vectorindex.Manager, chk *chunker.Chunker, log logger.ILogger) IFileService {
	return &fileService{
		index:   index,
		chunker: chk,
		logger:  log,
	}
}

// Upload extracts text from the file, chunks it by format and indexes every
// chunk under the user's id. Files that yield no text are rejected so the
// index never fills with empty content. Re-uploading under the same file id
// supersedes the previously indexed chunks.
func (s *fileService) Upload(ctx context.Context, userId uuid.UUID, input *UploadInput) (*dto.UploadResponse, error) {
	text := extract.Extract(input.Data, input.Filename)
	if text == "" {
		return nil, serverutils.BadRequest("Could not extract any text from the uploaded file")
	}

	pieces := s.chunker.Chunk(text, input.Filename)
	if len(pieces) == 0 {
		return nil, serverutils.BadRequest("The uploaded file produced no indexable content")
	}

	fileId := input.FileId
	if fileId == "" {
		fileId = uuid.NewString()
	}
	chunks := make([]vectorindex.DocumentChunk, 0, len(pieces))
	for _, piece := range pieces {
		chunks = append(chunks, vectorindex.DocumentChunk{
			Content: piece,
			Metadata: vectorindex.ChunkMetadata{
				Filename:   input.Filename,
				FolderPath: input.FolderPath,
				FileId:     fileId,
			},
		})
	}

	if err := s.index.Add(ctx, userId, chunks); err != nil {
		s.logger.Error("files", "failed to index upload", map[string]interface{}{
			"user_id":  userId.String(),
			"filename": input.Filename,
			"error":    err.Error(),
		})
		return nil, serverutils.Internal("Failed to index the uploaded file", err)
	}

	s.logger.Info("files", "file indexed", map[string]interface{}{
		"user_id":  userId.String(),
		"filename": input.Filename,
		"chunks":   len(chunks),
	})
	return &dto.UploadResponse{
		FileId:     fileId,
		Filename:   input.Filename,
		FolderPath: input.FolderPath,
		Chunks:     len(chunks),
	}, nil
}

func (s *fileService) GetMetadata(ctx context.Context, userId uuid.UUID) (*dto.MetadataResponse, error) {
	inventory, err := s.index.Metadata(ctx, userId)
	if err != nil {
		return nil, serverutils.Internal("Failed to read upload metadata", err)
	}

	response := &dto.MetadataResponse{
		Files:   make([]dto.FileDTO, 0, len(inventory.Files)),
		Folders: make([]dto.FolderDTO, 0, len(inventory.Folders)),
	}
	for _, f := range inventory.Files {
		response.Files = append(response.Files, dto.FileDTO{
			Id:         f.Id,
			Name:       f.Name,
			FolderPath: f.FolderPath,
		})
	}
	for _, folder := range inventory.Folders {
		files := make([]dto.FileDTO, 0, len(folder.Files))
		for _, f := range folder.Files {
			files = append(files, dto.FileDTO{
				Id:         f.Id,
				Name:       f.Name,
				FolderPath: f.FolderPath,
			})
		}
		response.Folders = append(response.Folders, dto.FolderDTO{
			Id:    folder.Id,
			Name:  folder.Name,
			Files: files,
		})
	}
	return response, nil
}

func (s *fileService) ClearRag(ctx context.Context, userId uuid.UUID) error {
	if err := s.index.Clear(ctx, userId); err != nil {
		return serverutils.Internal("Failed to clear uploaded documents", err)
	}
	s.logger.Info("files", "index cleared", map[string]interface{}{
		"user_id": userId.String(),
	})
	return nil
}
