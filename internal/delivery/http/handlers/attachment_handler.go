package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"attachment-service/internal/domain/dto"
	"attachment-service/internal/usecases"
	consts "attachment-service/pkg/constants"
	fe "attachment-service/pkg/errors"
)

type AttachmentHandler struct {
	attachmentService usecases.AttachmentService
	log               *zap.SugaredLogger
}

func NewAttachmentHandler(attachmentService usecases.AttachmentService, log *zap.SugaredLogger) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService, log: log}
}

// ServeFile
//
// @Summary      Serve an attachment by access key
// @Description  Streams the file bytes; download=1 switches to attachment disposition
// @Tags         Attachment
// @Produce      application/octet-stream
// @Param        accessKey  path   string true  "Access key"
// @Param        download   query  bool   false "Force download"
// @Success      200
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /files/{accessKey} [get]
func (h *AttachmentHandler) ServeFile(c *fiber.Ctx) error {
	att, body, size, err := h.attachmentService.Serve(c.Context(), c.Params("accessKey"))
	if err != nil {
		return fe.HandleError(c, h.log, err)
	}

	disposition := "inline"
	if c.QueryBool("download") {
		disposition = "attachment"
	}
	c.Set(fiber.HeaderContentType, att.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("%s; filename=%q", disposition, att.OriginalName))
	return c.SendStream(body, streamSize(size))
}

// streamSize narrows a file size for SendStream. int is 32 bits on some
// platforms; a size that does not fit falls back to chunked transfer.
func streamSize(size int64) int {
	if size > 0 && int64(int(size)) == size {
		return int(size)
	}
	return -1
}

// GetAttachment
//
// @Summary      Attachment metadata
// @Tags         Attachment
// @Produce      json
// @Param        id   path      string true "Attachment ID"
// @Success      200  {object}  dto.AttachmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /attachments/{id} [get]
func (h *AttachmentHandler) GetAttachment(c *fiber.Ctx) error {
	resp, err := h.attachmentService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return fe.HandleError(c, h.log, err)
	}
	return c.JSON(resp)
}

// SoftDelete
//
// @Summary      Soft-delete an attachment
// @Description  The file stays restorable until the grace window elapses
// @Tags         Attachment
// @Produce      json
// @Param        id   path      string true "Attachment ID"
// @Success      200  {object}  dto.StatusResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /attachments/{id} [delete]
func (h *AttachmentHandler) SoftDelete(c *fiber.Ctx) error {
	if err := h.attachmentService.SoftDelete(c.Context(), c.Params("id")); err != nil {
		return fe.HandleError(c, h.log, err)
	}
	return c.JSON(dto.StatusResponse{Status: consts.StatusOK})
}

// Restore
//
// @Summary      Restore a soft-deleted attachment
// @Tags         Attachment
// @Produce      json
// @Param        id   path      string true "Attachment ID"
// @Success      200  {object}  dto.StatusResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /attachments/{id}/restore [post]
func (h *AttachmentHandler) Restore(c *fiber.Ctx) error {
	if err := h.attachmentService.Restore(c.Context(), c.Params("id")); err != nil {
		return fe.HandleError(c, h.log, err)
	}
	return c.JSON(dto.StatusResponse{Status: consts.StatusOK})
}
