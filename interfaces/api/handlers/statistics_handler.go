package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"safesight/domain/dto"
	"safesight/domain/services"
	"safesight/pkg/utils"
)

type StatisticsHandler struct {
	ledgerService services.LedgerService
}

func NewStatisticsHandler(ledgerService services.LedgerService) *StatisticsHandler {
	return &StatisticsHandler{ledgerService: ledgerService}
}

// GetDailyStatistics returns the aggregate view for one day (default today).
func (h *StatisticsHandler) GetDailyStatistics(c *fiber.Ctx) error {
	day := c.Query("date")
	if day == "" {
		day = h.ledgerService.Day(time.Now())
	} else if _, err := time.Parse("2006-01-02", day); err != nil {
		return utils.BadRequestResponse(c, "date must be YYYY-MM-DD")
	}

	stats, err := h.ledgerService.GetDailyStatistics(c.Context(), day)
	if err != nil {
		return ledgerErrorResponse(c, err)
	}

	return utils.SuccessResponse(c, dto.DailyStatisticsToResponse(stats))
}

// GetIdentityStatistics returns the rolling-window view for one identity.
func (h *StatisticsHandler) GetIdentityStatistics(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return utils.BadRequestResponse(c, "identity code is required")
	}

	windowDays := c.QueryInt("window", 0)
	if windowDays > 365 {
		windowDays = 365
	}

	stats, err := h.ledgerService.GetIdentityStatistics(c.Context(), code, windowDays)
	if err != nil {
		return ledgerErrorResponse(c, err)
	}

	return utils.SuccessResponse(c, dto.IdentityStatisticsToResponse(stats))
}
