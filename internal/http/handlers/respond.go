package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"tradeup/internal/apperr"
	applog "tradeup/internal/log"
)

func statusOf(code apperr.Code) int {
	switch code {
	case apperr.CodeInvalidArgument:
		return fiber.StatusBadRequest
	case apperr.CodeInvalidState:
		return fiber.StatusConflict
	case apperr.CodePermissionDenied:
		return fiber.StatusForbidden
	case apperr.CodeNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// fail maps a service error to a JSON error body with a machine code.
// Unknown errors become an opaque 500; internals are logged, not sent.
func fail(c *fiber.Ctx, action string, err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		applog.Info(c, action+".reject", map[string]any{"code": string(e.Code), "msg": e.Message})
		return c.Status(statusOf(e.Code)).JSON(fiber.Map{
			"error":   string(e.Code),
			"message": e.Message,
		})
	}
	applog.Error(c, action+".fail", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "internal",
		"message": "something went wrong",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   string(apperr.CodeInvalidArgument),
		"message": msg,
	})
}
