package handlers

import (
	"bytes"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"attachment-service/internal/domain/dto"
	"attachment-service/internal/usecases"
	fe "attachment-service/pkg/errors"
)

const (
	headerSessionID  = "X-Upload-Session"
	headerChunkIndex = "X-Chunk-Index"
)

type UploadHandler struct {
	uploadService usecases.UploadService
	log           *zap.SugaredLogger
}

func NewUploadHandler(uploadService usecases.UploadService, log *zap.SugaredLogger) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, log: log}
}

// InitUpload
//
// @Summary      Initialize a resumable upload
// @Description  Validates the filename extension and opens a new upload session
// @Tags         Upload
// @Accept       json
// @Produce      json
// @Param        request  body      dto.InitUploadRequest true "Init request"
// @Success      200      {object}  dto.InitUploadResponse
// @Failure      400      {object}  dto.ErrorResponse
// @Router       /upload/init [post]
func (h *UploadHandler) InitUpload(c *fiber.Ctx) error {
	var req dto.InitUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "bad_request", Message: err.Error()})
	}
	if req.OwnerID == "" || req.Filename == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "bad_request", Message: "owner_id and filename are required"})
	}

	resp, err := h.uploadService.InitUpload(c.Context(), &req)
	if err != nil {
		return fe.HandleError(c, h.log, err)
	}
	return c.JSON(resp)
}

// UploadChunk
//
// @Summary      Upload one chunk
// @Description  Stores a single raw-body chunk; session and index travel in headers
// @Tags         Upload
// @Accept       application/octet-stream
// @Produce      json
// @Param        X-Upload-Session  header    string true "Upload session ID"
// @Param        X-Chunk-Index     header    int    true "Zero-based chunk index"
// @Success      200               {object}  dto.ChunkResponse
// @Failure      400               {object}  dto.ErrorResponse
// @Failure      404               {object}  dto.ErrorResponse
// @Router       /upload/chunk [post]
func (h *UploadHandler) UploadChunk(c *fiber.Ctx) error {
	sessionID := c.Get(headerSessionID)
	if sessionID == "" {
		sessionID = c.Query("session_id")
	}
	indexValue := c.Get(headerChunkIndex)
	if indexValue == "" {
		indexValue = c.Query("chunk_index")
	}
	if sessionID == "" || indexValue == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "bad_request", Message: "session id and chunk index are required"})
	}
	index, err := strconv.Atoi(indexValue)
	if err != nil || index < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "bad_request", Message: "chunk index must be a non-negative integer"})
	}

	// with StreamRequestBody enabled large chunks arrive as a stream;
	// small ones may already be buffered
	var body io.Reader = c.Context().RequestBodyStream()
	if body == nil {
		body = bytes.NewReader(c.Body())
	}

	resp, err := h.uploadService.ReceiveChunk(c.Context(), sessionID, index, body)
	if err != nil {
		return fe.HandleError(c, h.log, err)
	}
	return c.JSON(resp)
}

// CompleteUpload
//
// @Summary      Complete a resumable upload
// @Description  Merges all chunks, validates the content and publishes the attachment
// @Tags         Upload
// @Accept       json
// @Produce      json
// @Param        request  body      dto.CompleteUploadRequest true "Complete request"
// @Success      200      {object}  dto.UploadResponse
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      404      {object}  dto.ErrorResponse
// @Router       /upload/complete [post]
func (h *UploadHandler) CompleteUpload(c *fiber.Ctx) error {
	var req dto.CompleteUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "bad_request", Message: err.Error()})
	}
	if req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "bad_request", Message: "session_id is required"})
	}

	resp, err := h.uploadService.CompleteUpload(c.Context(), &req)
	if err != nil {
		return fe.HandleError(c, h.log, err)
	}
	return c.JSON(resp)
}

// Upload
//
// @Summary      Single-shot upload
// @Description  Uploads a small file in one multipart request
// @Tags         Upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        owner_id  formData  string true  "Owner ID"
// @Param        kind      formData  string false "attachment, avatar or article"
// @Param        file      formData  file   true  "File"
// @Success      200       {object}  dto.UploadResponse
// @Failure      400       {object}  dto.ErrorResponse
// @Router       /upload [post]
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	ownerID := c.FormValue("owner_id")
	if ownerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "bad_request", Message: "owner_id is required"})
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "bad_request", Message: "file is required"})
	}

	resp, err := h.uploadService.Upload(c.Context(), ownerID, c.FormValue("kind"), fileHeader)
	if err != nil {
		return fe.HandleError(c, h.log, err)
	}
	return c.JSON(resp)
}

// UploadStatus
//
// @Summary      Upload session status
// @Description  Returns the session state and the chunk indices received so far
// @Tags         Upload
// @Produce      json
// @Param        session_id  query     string true "Upload session ID"
// @Success      200         {object}  dto.UploadStatusResponse
// @Failure      404         {object}  dto.ErrorResponse
// @Router       /upload/status [get]
func (h *UploadHandler) UploadStatus(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "bad_request", Message: "session_id is required"})
	}

	resp, err := h.uploadService.UploadStatus(c.Context(), sessionID)
	if err != nil {
		return fe.HandleError(c, h.log, err)
	}
	return c.JSON(resp)
}
