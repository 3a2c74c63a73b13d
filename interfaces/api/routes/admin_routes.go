package routes

import (
	"github.com/gofiber/fiber/v2"

	"safesight/interfaces/api/handlers"
	"safesight/interfaces/api/middleware"
)

func SetupAdminRoutes(api fiber.Router, h *handlers.Handlers) {
	admin := api.Group("/admin", middleware.Protected(), middleware.AdminOnly())

	admin.Post("/reset-day", h.Export.ResetDay)
}
