package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fabricadesoftware/vumock/internal/api/validate"
)

// view projects the parts of a request the validation pipeline inspects.
func view(c *fiber.Ctx) validate.Request {
	return validate.Request{
		Method:        c.Method(),
		Path:          c.Path(),
		Body:          c.Body(),
		ContentType:   c.Get(fiber.HeaderContentType),
		Date:          c.Get("Date"),
		ContentLength: c.Get(fiber.HeaderContentLength),
	}
}
