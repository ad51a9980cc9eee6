package handlers

import (
	"errors"

	"cloud-storage-api/internal/config"
	"cloud-storage-api/internal/middleware"
	"cloud-storage-api/internal/models"
	"cloud-storage-api/internal/requests"
	"cloud-storage-api/internal/services"
	"cloud-storage-api/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kerimovok/go-pkg-utils/httpx"
	"github.com/kerimovok/go-pkg-utils/validator"
)

// FileHandler handles file-related HTTP requests
type FileHandler struct {
	files *services.FileService
	store *store.FileStore
}

// NewFileHandler creates a new file handler
func NewFileHandler(files *services.FileService, fileStore *store.FileStore) *FileHandler {
	return &FileHandler{
		files: files,
		store: fileStore,
	}
}

// UploadFile handles file upload requests
func (h *FileHandler) UploadFile(c *fiber.Ctx) error {
	caller := middleware.CurrentUser(c)

	// Parse multipart form
	file, err := c.FormFile("file")
	if err != nil {
		response := httpx.BadRequest("No file provided", err)
		return httpx.SendResponse(c, response)
	}

	maxSize := config.GetConfig().Storage.Validation.MaxFileSizeBytes
	if maxSize > 0 && file.Size > maxSize {
		response := httpx.BadRequest("File exceeds the maximum allowed size", nil)
		return httpx.SendResponse(c, response)
	}

	// Parse additional form data
	var input requests.UploadFileRequest
	if err := c.BodyParser(&input); err != nil {
		response := httpx.BadRequest("Invalid request body", err)
		return httpx.SendResponse(c, response)
	}

	// Validate request
	if err := validator.ValidateStruct(&input); err != nil {
		response := httpx.BadRequest("Validation failed", err)
		return httpx.SendResponse(c, response)
	}

	src, err := file.Open()
	if err != nil {
		response := httpx.InternalServerError("Failed to read uploaded file", err)
		return httpx.SendResponse(c, response)
	}
	defer src.Close()

	record, err := h.files.Create(caller, file.Filename, src, input)
	if err != nil {
		response := httpx.InternalServerError("Failed to process file upload", err)
		return httpx.SendResponse(c, response)
	}

	response := httpx.Created("File uploaded successfully", record)
	return httpx.SendResponse(c, response)
}

// ListFiles returns the caller's files; staff see every file.
func (h *FileHandler) ListFiles(c *fiber.Ctx) error {
	caller := middleware.CurrentUser(c)

	var input requests.ListFilesRequest
	if err := c.QueryParser(&input); err != nil {
		response := httpx.BadRequest("Invalid query parameters", err)
		return httpx.SendResponse(c, response)
	}
	if input.Page <= 0 {
		input.Page = 1
	}
	if input.Limit <= 0 {
		input.Limit = 20
	}

	var ownerID *uuid.UUID
	if !caller.IsStaff {
		ownerID = &caller.ID
	}

	offset := (input.Page - 1) * input.Limit
	files, total, err := h.store.List(ownerID, offset, input.Limit)
	if err != nil {
		response := httpx.InternalServerError("Failed to fetch files", err)
		return httpx.SendResponse(c, response)
	}

	result := map[string]interface{}{
		"files": files,
		"pagination": map[string]interface{}{
			"page":       input.Page,
			"limit":      input.Limit,
			"total":      total,
			"totalPages": (total + int64(input.Limit) - 1) / int64(input.Limit),
		},
	}

	response := httpx.OK("Files retrieved successfully", result)
	return httpx.SendResponse(c, response)
}

// GetFile retrieves file information
func (h *FileHandler) GetFile(c *fiber.Ctx) error {
	record, ok := h.authorize(c, services.OpRead)
	if !ok {
		return nil
	}

	response := httpx.OK("File retrieved successfully", record)
	return httpx.SendResponse(c, response)
}

// DownloadFile streams the blob to its owner or a staff caller.
func (h *FileHandler) DownloadFile(c *fiber.Ctx) error {
	record, ok := h.authorize(c, services.OpRead)
	if !ok {
		return nil
	}
	return h.sendBlob(c, record)
}

// UpdateFile applies a partial update to name and comment.
func (h *FileHandler) UpdateFile(c *fiber.Ctx) error {
	record, ok := h.authorize(c, services.OpUpdate)
	if !ok {
		return nil
	}

	var input requests.UpdateFileRequest
	if err := c.BodyParser(&input); err != nil {
		response := httpx.BadRequest("Invalid request body", err)
		return httpx.SendResponse(c, response)
	}

	// Validate request
	if err := validator.ValidateStruct(&input); err != nil {
		response := httpx.BadRequest("Validation failed", err)
		return httpx.SendResponse(c, response)
	}

	caller := middleware.CurrentUser(c)
	if err := h.files.Update(record, input, caller.Username); err != nil {
		if errors.Is(err, services.ErrValidation) {
			response := httpx.BadRequest("Validation failed", err)
			return httpx.SendResponse(c, response)
		}
		response := httpx.InternalServerError("Failed to update file", err)
		return httpx.SendResponse(c, response)
	}

	response := httpx.OK("File updated successfully", record)
	return httpx.SendResponse(c, response)
}

// DeleteFile deletes a file's blob and record. Blob failures abort the
// delete and the caller may retry.
func (h *FileHandler) DeleteFile(c *fiber.Ctx) error {
	record, ok := h.authorize(c, services.OpDelete)
	if !ok {
		return nil
	}

	caller := middleware.CurrentUser(c)
	if err := h.files.Delete(record, caller.Username); err != nil {
		response := httpx.InternalServerError("Failed to delete file", err)
		return httpx.SendResponse(c, response)
	}

	response := httpx.OK("File deleted successfully", nil)
	return httpx.SendResponse(c, response)
}

// ShareLink returns the file's stable public download URL.
func (h *FileHandler) ShareLink(c *fiber.Ctx) error {
	record, ok := h.authorize(c, services.OpRead)
	if !ok {
		return nil
	}

	result := map[string]interface{}{
		"sharedLink": c.BaseURL() + "/download/" + record.SharedToken,
	}
	response := httpx.OK("Shared link retrieved successfully", result)
	return httpx.SendResponse(c, response)
}

// DownloadShared streams a blob resolved by its shared token. No
// authentication: the opaque token is the capability.
func (h *FileHandler) DownloadShared(c *fiber.Ctx) error {
	token := c.Params("token")

	record, err := h.files.ResolveSharedToken(token)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			response := httpx.NotFound("File not found")
			return httpx.SendResponse(c, response)
		}
		response := httpx.InternalServerError("Failed to fetch file", err)
		return httpx.SendResponse(c, response)
	}

	return h.sendBlob(c, record)
}

func (h *FileHandler) sendBlob(c *fiber.Ctx, record *models.File) error {
	rc, err := h.files.RecordDownload(record)
	if err != nil {
		if errors.Is(err, services.ErrStorageRead) {
			response := httpx.NotFound("File not found on disk")
			return httpx.SendResponse(c, response)
		}
		response := httpx.InternalServerError("Failed to open file", err)
		return httpx.SendResponse(c, response)
	}

	c.Attachment(record.Name)
	if record.SizeBytes > 0 {
		return c.SendStream(rc, int(record.SizeBytes))
	}
	return c.SendStream(rc)
}

// authorize loads the file from the route id and checks the caller may
// perform the operation. On failure the response has already been written.
func (h *FileHandler) authorize(c *fiber.Ctx, op services.Operation) (*models.File, bool) {
	id := c.Params("id")
	fileID, err := uuid.Parse(id)
	if err != nil {
		response := httpx.BadRequest("Invalid file ID", err)
		_ = httpx.SendResponse(c, response)
		return nil, false
	}

	record, err := h.store.ByID(fileID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response := httpx.NotFound("File not found")
			_ = httpx.SendResponse(c, response)
			return nil, false
		}
		response := httpx.InternalServerError("Failed to fetch file", err)
		_ = httpx.SendResponse(c, response)
		return nil, false
	}

	caller := middleware.CurrentUser(c)
	if err := services.Authorize(caller, record, op); err != nil {
		response := httpx.Forbidden("You do not have access to this file")
		_ = httpx.SendResponse(c, response)
		return nil, false
	}

	return record, true
}
