package routes

import (
	"github.com/gofiber/fiber/v2"

	"safesight/interfaces/api/handlers"
)

// Detection ingest is called by the vision pipelines on the local network,
// which hold no operator credentials. The endpoints stay unauthenticated but
// rate limited at the app level.
func SetupDetectionRoutes(api fiber.Router, h *handlers.Handlers) {
	detections := api.Group("/detections")

	detections.Post("/", h.Detection.RecordDetection)
	detections.Post("/batch", h.Detection.RecordDetectionBatch)
	detections.Get("/recent", h.Detection.GetRecentDetections)
}
