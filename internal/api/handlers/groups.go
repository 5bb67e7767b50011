/**
 * @description
 * Equivalence group API handlers: manual creation, similarity suggestions,
 * automatic detection, and group queries for the comparison views.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/superprecios/backend/internal/logger"
	"github.com/superprecios/backend/internal/services"
)

// urlParam returns a path parameter with URL escaping undone, so group names
// containing spaces survive the round trip.
func urlParam(c *fiber.Ctx, key string) (string, error) {
	return url.PathUnescape(c.Params(key))
}

// DefaultAutoThreshold suppresses false positives in unattended runs
const DefaultAutoThreshold = 85

type GroupHandler struct {
	Matcher *services.MatcherService
}

func NewGroupHandler(matcher *services.MatcherService) *GroupHandler {
	return &GroupHandler{Matcher: matcher}
}

// CreateGroupRequest is the manual group creation body
type CreateGroupRequest struct {
	GroupName  string  `json:"group_name"`
	ProductIDs []int64 `json:"product_ids"`
}

// CreateGroup persists a manually curated group
// POST /api/v1/groups
func (h *GroupHandler) CreateGroup(c *fiber.Ctx) error {
	var req CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.GroupName == "" || len(req.ProductIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "group_name and product_ids are required",
		})
	}

	if err := h.Matcher.CreateManualGroup(c.Context(), req.GroupName, req.ProductIDs); err != nil {
		logger.Error("GroupHandler: failed to create group: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create group",
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"group_name": req.GroupName,
		"members":    len(req.ProductIDs),
	})
}

// SuggestEquivalents returns scored candidates for a query text
// GET /api/v1/groups/suggest?q=&threshold=&limit=
func (h *GroupHandler) SuggestEquivalents(c *fiber.Ctx) error {
	query := c.Query("q")
	threshold := float64(c.QueryInt("threshold", 70))
	limit := c.QueryInt("limit", services.DefaultSuggestLimit)

	suggestions := h.Matcher.FindEquivalents(c.Context(), query, threshold, limit)
	return c.JSON(fiber.Map{
		"query":       query,
		"threshold":   threshold,
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

// AutoDetect runs the unattended matching pass
// POST /api/v1/groups/auto-detect?threshold=
func (h *GroupHandler) AutoDetect(c *fiber.Ctx) error {
	threshold := float64(c.QueryInt("threshold", DefaultAutoThreshold))

	created := h.Matcher.AutoDetectEquivalences(c.Context(), threshold)
	return c.JSON(fiber.Map{
		"groups_created": created,
		"threshold":      threshold,
	})
}

// ListGroups returns all group names, sorted
// GET /api/v1/groups
func (h *GroupHandler) ListGroups(c *fiber.Ctx) error {
	names := h.Matcher.ListGroupNames(c.Context())
	return c.JSON(fiber.Map{
		"groups": names,
		"count":  len(names),
	})
}

// GetGroup returns a group's members with their current prices
// GET /api/v1/groups/:name
func (h *GroupHandler) GetGroup(c *fiber.Ctx) error {
	name, err := urlParam(c, "name")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid group name",
		})
	}

	members := h.Matcher.GetGroup(c.Context(), name)
	return c.JSON(fiber.Map{
		"group_name": name,
		"members":    members,
		"count":      len(members),
	})
}

// GetGroupHistory returns the merged price history of a group
// GET /api/v1/groups/:name/history
func (h *GroupHandler) GetGroupHistory(c *fiber.Ctx) error {
	name, err := urlParam(c, "name")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid group name",
		})
	}

	history := h.Matcher.GetGroupHistory(c.Context(), name)
	return c.JSON(fiber.Map{
		"group_name": name,
		"history":    history,
		"count":      len(history),
	})
}
