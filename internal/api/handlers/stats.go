/**
 * @description
 * Statistics API handler: the summary metrics block of the dashboard.
 * Always answers 200; the service degrades every failure to zero values.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/superprecios/backend/internal/services"
)

type StatsHandler struct {
	Stats *services.StatsService
}

func NewStatsHandler(stats *services.StatsService) *StatsHandler {
	return &StatsHandler{Stats: stats}
}

// GetStatistics returns catalog-wide aggregates
// GET /api/v1/stats
func (h *StatsHandler) GetStatistics(c *fiber.Ctx) error {
	return c.JSON(h.Stats.GetStatistics(c.Context()))
}
