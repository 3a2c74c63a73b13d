package routes

import (
	"github.com/gofiber/fiber/v2"

	"safesight/interfaces/api/handlers"
	"safesight/interfaces/api/middleware"
)

func SetupIdentityRoutes(api fiber.Router, h *handlers.Handlers) {
	identities := api.Group("/identities", middleware.Protected())

	identities.Get("/", h.Identity.List)
	identities.Get("/:code", h.Identity.Get)

	// Mutations require admin
	identities.Post("/", middleware.AdminOnly(), h.Identity.Register)
	identities.Put("/:code", middleware.AdminOnly(), h.Identity.Update)
	identities.Post("/:code/train", middleware.AdminOnly(), h.Identity.RequestTraining)
	identities.Post("/:code/disable", middleware.AdminOnly(), h.Identity.Deactivate)
}
