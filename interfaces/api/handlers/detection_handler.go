package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"safesight/domain/dto"
	"safesight/domain/services"
	"safesight/infrastructure/worker"
	"safesight/pkg/utils"
)

type DetectionHandler struct {
	ledgerService   services.LedgerService
	detectionWorker *worker.DetectionWorker
}

func NewDetectionHandler(ledgerService services.LedgerService, detectionWorker *worker.DetectionWorker) *DetectionHandler {
	return &DetectionHandler{
		ledgerService:   ledgerService,
		detectionWorker: detectionWorker,
	}
}

// RecordDetection handles a single event from a producer pipeline.
// Threshold and cooldown outcomes are 200s; only real store failures are
// errors, so producers can tell "nothing happened" from "retry later".
func (h *DetectionHandler) RecordDetection(c *fiber.Ctx) error {
	var req dto.DetectionEventRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid detection event", err)
	}

	result, err := h.ledgerService.RecordDetection(c.Context(), req.ToEvent())
	if err != nil {
		return ledgerErrorResponse(c, err)
	}

	return utils.SuccessResponse(c, dto.DetectionResultToResponse(result))
}

// RecordDetectionBatch accepts a batch pipeline submission. Events are
// enqueued on the worker so the caller is never blocked on the store;
// outcomes surface on the live feed.
func (h *DetectionHandler) RecordDetectionBatch(c *fiber.Ctx) error {
	var req dto.BatchDetectionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid detection batch", err)
	}

	enqueued := 0
	for i := range req.Events {
		if err := h.detectionWorker.Submit(req.Events[i].ToEvent()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"success":  false,
				"error":    "Detection queue full",
				"enqueued": enqueued,
				"total":    len(req.Events),
			})
		}
		enqueued++
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success":  true,
		"enqueued": enqueued,
	})
}

// GetRecentDetections returns the newest audit sessions for the live panel.
func (h *DetectionHandler) GetRecentDetections(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	if limit > 100 {
		limit = 100
	}

	detections, err := h.ledgerService.RecentDetections(c.Context(), limit)
	if err != nil {
		return ledgerErrorResponse(c, err)
	}

	return utils.SuccessResponse(c, dto.RecentDetectionsToResponse(detections))
}

// ledgerErrorResponse maps the ledger error taxonomy onto HTTP statuses.
func ledgerErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrUnknownIdentity):
		return utils.NotFoundResponse(c, "Unknown identity")
	case errors.Is(err, services.ErrStoreUnavailable):
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Presence store unavailable", err)
	case errors.Is(err, services.ErrInvariantViolation):
		return utils.ErrorResponse(c, fiber.StatusConflict, "Duplicate presence record rejected", err)
	default:
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Internal error", err)
	}
}
