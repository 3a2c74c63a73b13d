package routes

import (
	"github.com/gofiber/fiber/v2"

	"safesight/interfaces/api/handlers"
	"safesight/interfaces/api/middleware"
	"safesight/pkg/config"
)

func SetupAuthRoutes(api fiber.Router, h *handlers.Handlers, rateCfg *config.RateLimitConfig) {
	auth := api.Group("/auth")

	auth.Post("/login", middleware.AuthRateLimiter(rateCfg), h.Auth.Login)

	// Account creation is restricted to admins
	auth.Post("/register", middleware.Protected(), middleware.AdminOnly(), h.Auth.Register)
}
