package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"safesight/domain/dto"
	"safesight/domain/services"
	"safesight/pkg/utils"
)

type ExportHandler struct {
	ledgerService services.LedgerService
}

func NewExportHandler(ledgerService services.LedgerService) *ExportHandler {
	return &ExportHandler{ledgerService: ledgerService}
}

// ExportRange returns presence rows for [start, end], sorted by day then
// identity code. Formatting into CSV or a spreadsheet happens downstream.
func (h *ExportHandler) ExportRange(c *fiber.Ctx) error {
	today := h.ledgerService.Day(time.Now())
	startDay := c.Query("start", today)
	endDay := c.Query("end", today)
	department := c.Query("department")

	for _, day := range []string{startDay, endDay} {
		if _, err := time.Parse("2006-01-02", day); err != nil {
			return utils.BadRequestResponse(c, "start and end must be YYYY-MM-DD")
		}
	}
	if startDay > endDay {
		return utils.BadRequestResponse(c, "start must not be after end")
	}

	rows, err := h.ledgerService.ExportRange(c.Context(), startDay, endDay, department)
	if err != nil {
		return ledgerErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.ExportRowsToResponse(rows),
		"meta": fiber.Map{
			"start":      startDay,
			"end":        endDay,
			"department": department,
			"rows":       len(rows),
		},
	})
}

// ResetDay removes one day's presence records. Admin only; the audit trail
// stays intact.
func (h *ExportHandler) ResetDay(c *fiber.Ctx) error {
	var req struct {
		Day string `json:"day"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}
	if _, err := time.Parse("2006-01-02", req.Day); err != nil {
		return utils.BadRequestResponse(c, "day must be YYYY-MM-DD")
	}

	deleted, err := h.ledgerService.ResetDay(c.Context(), req.Day)
	if err != nil {
		return ledgerErrorResponse(c, err)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"day":     req.Day,
		"deleted": deleted,
	})
}
