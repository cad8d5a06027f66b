package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fathima-sithara/ticket-notification-service/internal/errs"
)

func JSONSuccess(c *fiber.Ctx, status int, payload interface{}) error {
	return c.Status(status).JSON(fiber.Map{"status": "ok", "data": payload})
}

func JSONError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"status": "error", "message": msg})
}

// ErrorHandler maps service errors onto HTTP responses.
func ErrorHandler(log *zap.SugaredLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var (
			verr *errs.ValidationError
			ferr *fiber.Error
		)
		switch {
		case errors.As(err, &verr):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"status":   "error",
				"message":  errs.ErrValidation.Error(),
				"errors":   verr.Errors,
				"warnings": verr.Warnings,
			})
		case errors.As(err, &ferr):
			return JSONError(c, ferr.Code, ferr.Message)
		case errors.Is(err, errs.ErrNotFound):
			return JSONError(c, fiber.StatusNotFound, "not found")
		case errors.Is(err, errs.ErrUnknownTemplate):
			return JSONError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, errs.ErrForbidden):
			return JSONError(c, fiber.StatusForbidden, "forbidden")
		case errors.Is(err, errs.ErrUnauthorized):
			return JSONError(c, fiber.StatusUnauthorized, "unauthorized")
		case errors.Is(err, errs.ErrPreferencesUnavailable):
			return JSONError(c, fiber.StatusServiceUnavailable, err.Error())
		default:
			log.Errorw("request failed", "method", c.Method(), "path", c.Path(), "error", err)
			return JSONError(c, fiber.StatusInternalServerError, "internal error")
		}
	}
}
