package errors

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HandleError converts service errors into JSON responses. Validation errors
// are expected traffic and logged at debug level only; path escapes and
// storage/registry failures get an error or warn line.
func HandleError(c *fiber.Ctx, log *zap.SugaredLogger, err error) error {
	if err == nil {
		return nil
	}

	var ue *UploadError
	if !errors.As(err, &ue) {
		log.Errorw("unexpected error", "err", err)
		ue = ErrInternal(err)
	}

	var status int
	switch ue.Code {
	case CodeNotFound, CodeSessionNotFound:
		status = fiber.StatusNotFound
		log.Debugw("request rejected", "code", ue.Code, "err", ue.Err)
	case CodeUnsupportedFileType, CodeIncompleteUpload:
		status = fiber.StatusBadRequest
		log.Debugw("request rejected", "code", ue.Code, "err", ue.Err)
	case CodeContentMismatch:
		status = fiber.StatusBadRequest
		// possible spoofing attempt, keep a trace in the security log
		log.Warnw("content validation failed after assembly", "code", ue.Code, "err", ue.Err)
	case CodePathEscape:
		status = fiber.StatusBadRequest
		log.Errorw("path containment violation", "code", ue.Code, "err", ue.Err)
	case CodeStorageIO, CodeRegistry:
		status = fiber.StatusInternalServerError
		log.Errorw("backend failure", "code", ue.Code, "err", ue.Err)
	default:
		status = fiber.StatusInternalServerError
		log.Errorw("internal error", "code", ue.Code, "err", ue.Err)
	}

	return c.Status(status).JSON(fiber.Map{
		"error":   ue.Code,
		"message": ue.Message,
	})
}
