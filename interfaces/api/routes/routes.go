package routes

import (
	"github.com/gofiber/fiber/v2"

	"safesight/infrastructure/websocket"
	"safesight/interfaces/api/handlers"
	"safesight/pkg/config"
)

func SetupRoutes(app *fiber.App, h *handlers.Handlers, wsManager *websocket.Manager, cfg *config.Config) {
	// Health and root routes
	SetupHealthRoutes(app, h.Health)

	// API version group
	api := app.Group("/api/v1")

	SetupAuthRoutes(api, h, &cfg.RateLimit)
	SetupDetectionRoutes(api, h)
	SetupStatisticsRoutes(api, h)
	SetupIdentityRoutes(api, h)
	SetupAdminRoutes(api, h)

	// WebSocket routes (needs app, not api group)
	SetupWebSocketRoutes(app, wsManager)
}
