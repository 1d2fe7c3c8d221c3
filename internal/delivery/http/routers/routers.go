package routers

import (
	"github.com/gofiber/fiber/v2"

	"attachment-service/internal/delivery/http/handlers"
)

// SetupRoutes maps the public endpoints. Handlers are constructed in the
// composition root; this only wires paths.
func SetupRoutes(app *fiber.App, upload *handlers.UploadHandler, attachment *handlers.AttachmentHandler) {
	api := app.Group("/api/v1")

	api.Post("/upload/init", upload.InitUpload)
	api.Post("/upload/chunk", upload.UploadChunk)
	api.Post("/upload/complete", upload.CompleteUpload)
	api.Post("/upload", upload.Upload)
	api.Get("/upload/status", upload.UploadStatus)

	api.Get("/attachments/:id", attachment.GetAttachment)
	api.Delete("/attachments/:id", attachment.SoftDelete)
	api.Post("/attachments/:id/restore", attachment.Restore)

	app.Get("/files/:accessKey", attachment.ServeFile)
}
