package controller

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"path/filepath"

	"ai-agent-be/internal/dto"
	"ai-agent-be/internal/pkg/serverutils"
	"ai-agent-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IFileController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	Metadata(ctx *fiber.Ctx) error
	ClearRag(ctx *fiber.Ctx) error
}

type fileController struct {
	service service.IFileService
}

func NewFileController(service service.IFileService) IFileController {
	return &fileController{service: service}
}

func (c *fileController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/files")
	h.Post("/upload", c.Upload)
	h.Get("/metadata", c.Metadata)
	h.Post("/clear_rag", c.ClearRag)
}

func (c *fileController) Upload(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)

	form, err := ctx.MultipartForm()
	if err != nil {
		return serverutils.BadRequest("Invalid multipart form")
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return serverutils.BadRequest("Missing files in form data")
	}

	// Optional metadata field: an ordered JSON list zipped with the files.
	// Entry i describes file i; missing entries fall back to the part's own
	// filename and a server-minted id.
	var metas []dto.UploadFileMetadata
	if raw := ctx.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metas); err != nil {
			return serverutils.BadRequest("Invalid metadata JSON")
		}
	}

	res := &dto.UploadBatchResponse{Indexed: []dto.UploadResponse{}}
	for i, header := range headers {
		var meta dto.UploadFileMetadata
		if i < len(metas) {
			meta = metas[i]
		}
		filename := filepath.Base(header.Filename)
		if meta.Name != "" {
			filename = filepath.Base(meta.Name)
		}

		data, err := readUpload(header)
		if err != nil {
			res.Skipped = append(res.Skipped, dto.SkippedFileDTO{
				Filename: filename,
				Reason:   "could not read file",
			})
			continue
		}

		uploaded, err := c.service.Upload(ctx.Context(), userId, &service.UploadInput{
			Filename:   filename,
			FolderPath: meta.FolderPath,
			FileId:     meta.Id,
			Data:       data,
		})
		if err != nil {
			// A bad file skips, it never poisons the rest of the batch.
			var aerr *serverutils.AppError
			reason := "could not index file"
			if errors.As(err, &aerr) {
				reason = aerr.Message
			}
			res.Skipped = append(res.Skipped, dto.SkippedFileDTO{
				Filename: filename,
				Reason:   reason,
			})
			continue
		}
		res.Indexed = append(res.Indexed, *uploaded)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success upload files", res))
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func (c *fileController) Metadata(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)

	res, err := c.service.GetMetadata(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get file metadata", res))
}

func (c *fileController) ClearRag(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)

	if err := c.service.ClearRag(ctx.Context(), userId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success clear uploaded documents", nil))
}
