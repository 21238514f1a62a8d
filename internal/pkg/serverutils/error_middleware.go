package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts errors returned by handlers into the
// response envelope. Unclassified errors become opaque 500s so internals
// never leak to clients.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var verr *ValidationError
		if errors.As(err, &verr) {
			return ctx.Status(fiber.StatusUnprocessableEntity).
				JSON(ErrorResponse("Validation failed", verr.Fields))
		}

		var aerr *AppError
		if errors.As(err, &aerr) {
			return ctx.Status(aerr.Code).JSON(ErrorResponse(aerr.Message, nil))
		}

		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			return ctx.Status(ferr.Code).JSON(ErrorResponse(ferr.Message, nil))
		}

		return ctx.Status(fiber.StatusInternalServerError).
			JSON(ErrorResponse("Internal server error", nil))
	}
}
