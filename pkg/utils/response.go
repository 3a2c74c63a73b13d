package utils

import (
	"github.com/gofiber/fiber/v2"
)

// SuccessResponse writes a uniform success envelope.
func SuccessResponse(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// ErrorResponse writes a uniform error envelope.
func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	body := fiber.Map{
		"success": false,
		"error":   message,
	}
	if err != nil {
		body["detail"] = err.Error()
	}
	return c.Status(status).JSON(body)
}

// BadRequestResponse is a 400 shorthand.
func BadRequestResponse(c *fiber.Ctx, message string) error {
	return ErrorResponse(c, fiber.StatusBadRequest, message, nil)
}

// UnauthorizedResponse is a 401 shorthand.
func UnauthorizedResponse(c *fiber.Ctx, message string) error {
	return ErrorResponse(c, fiber.StatusUnauthorized, message, nil)
}

// NotFoundResponse is a 404 shorthand.
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return ErrorResponse(c, fiber.StatusNotFound, message, nil)
}
