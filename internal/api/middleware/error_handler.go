package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/fabricadesoftware/vumock/internal/domain"
)

func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		// Non-JSON responses carry their own body and headers.
		var rawErr *domain.RawError
		if errors.As(err, &rawErr) {
			if rawErr.ContentType != "" {
				c.Set(fiber.HeaderContentType, rawErr.ContentType)
			}
			for key, value := range rawErr.Header {
				c.Set(key, value)
			}
			return c.Status(rawErr.StatusCode).SendString(rawErr.Body)
		}

		var apiErr *domain.Error
		if errors.As(err, &apiErr) {
			return c.Status(apiErr.StatusCode).JSON(fiber.Map{
				"transaction_id": domain.RandomHex(),
				"result_code":    apiErr.ResultCode,
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"transaction_id": domain.RandomHex(),
				"result_code":    domain.ResultFail,
			})
		}

		// Unknown error - log and return the generic failure code
		logger.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Path()),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"transaction_id": domain.RandomHex(),
			"result_code":    domain.ResultFail,
		})
	}
}
