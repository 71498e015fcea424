package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/danor93/chat-router/internal/errors"
	"github.com/danor93/chat-router/internal/models"
)

// ErrorHandler is the centralized Fiber error handler. It maps an
// *errors.AppError raised anywhere in the request path to the wire
// shape spec.md §4.3/§7 requires: a bare {"error": <message>} body and
// the status carried on the AppError itself.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		requestID, _ := c.Locals("requestID").(string)

		slog.Error("request failed",
			"error", err,
			"method", c.Method(),
			"path", c.Path(),
			"request_id", requestID,
		)

		if appErr, ok := errors.IsAppError(err); ok {
			return c.Status(appErr.StatusCode()).JSON(models.ErrorResponse{
				Error: appErr.Message,
			})
		}

		if fiberErr, ok := err.(*fiber.Error); ok {
			return c.Status(fiberErr.Code).JSON(models.ErrorResponse{
				Error: fiberErr.Message,
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error: "Internal server error",
		})
	}
}
