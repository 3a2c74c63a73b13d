package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"safesight/domain/dto"
	"safesight/domain/services"
	"safesight/pkg/utils"
)

type IdentityHandler struct {
	identityService services.IdentityService
}

func NewIdentityHandler(identityService services.IdentityService) *IdentityHandler {
	return &IdentityHandler{identityService: identityService}
}

// Register creates a new identity (admin only).
func (h *IdentityHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterIdentityRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid identity", err)
	}

	identity, err := h.identityService.Register(c.Context(), req.ToInput())
	if err != nil {
		if errors.Is(err, services.ErrIdentityExists) {
			return utils.ErrorResponse(c, fiber.StatusConflict, "Identity code already registered", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to register identity", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    dto.IdentityToResponse(identity),
	})
}

// Get returns one identity by code.
func (h *IdentityHandler) Get(c *fiber.Ctx) error {
	identity, err := h.identityService.Get(c.Context(), c.Params("code"))
	if err != nil {
		if errors.Is(err, services.ErrIdentityNotFound) {
			return utils.NotFoundResponse(c, "Identity not found")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load identity", err)
	}

	return utils.SuccessResponse(c, dto.IdentityToResponse(identity))
}

// List returns identities with pagination, optionally filtered by department.
func (h *IdentityHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)
	if limit > 100 {
		limit = 100
	}
	department := c.Query("department")

	identities, total, err := h.identityService.List(c.Context(), department, page, limit)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list identities", err)
	}

	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.IdentitiesToResponse(identities),
		"meta": fiber.Map{
			"total":      total,
			"page":       page,
			"limit":      limit,
			"totalPages": totalPages,
		},
	})
}

// Update mutates name/department.
func (h *IdentityHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateIdentityRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	identity, err := h.identityService.Update(c.Context(), c.Params("code"), req.ToInput())
	if err != nil {
		if errors.Is(err, services.ErrIdentityNotFound) {
			return utils.NotFoundResponse(c, "Identity not found")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update identity", err)
	}

	return utils.SuccessResponse(c, dto.IdentityToResponse(identity))
}

// RequestTraining triggers recognition training on the vision service.
func (h *IdentityHandler) RequestTraining(c *fiber.Ctx) error {
	if err := h.identityService.RequestTraining(c.Context(), c.Params("code")); err != nil {
		if errors.Is(err, services.ErrIdentityNotFound) {
			return utils.NotFoundResponse(c, "Identity not found")
		}
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Recognition training failed", err)
	}

	return utils.SuccessResponse(c, fiber.Map{"trained": true})
}

// Deactivate soft-disables an identity; historical records are kept.
func (h *IdentityHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.identityService.Deactivate(c.Context(), c.Params("code")); err != nil {
		if errors.Is(err, services.ErrIdentityNotFound) {
			return utils.NotFoundResponse(c, "Identity not found")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to deactivate identity", err)
	}

	return utils.SuccessResponse(c, fiber.Map{"deactivated": true})
}
