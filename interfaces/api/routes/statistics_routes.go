package routes

import (
	"github.com/gofiber/fiber/v2"

	"safesight/interfaces/api/handlers"
	"safesight/interfaces/api/middleware"
)

func SetupStatisticsRoutes(api fiber.Router, h *handlers.Handlers) {
	stats := api.Group("/statistics", middleware.Protected())

	stats.Get("/daily", h.Statistics.GetDailyStatistics)
	stats.Get("/identities/:code", h.Statistics.GetIdentityStatistics)

	api.Get("/export", middleware.Protected(), h.Export.ExportRange)
}
