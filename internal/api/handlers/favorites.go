/**
 * @description
 * Favorite API handlers: mark, unmark, and list favorite products.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/superprecios/backend/internal/logger"
	"github.com/superprecios/backend/internal/services"
)

type FavoriteHandler struct {
	Favorites *services.FavoriteService
}

func NewFavoriteHandler(favorites *services.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{Favorites: favorites}
}

// FavoriteRequest is the add-favorite body
type FavoriteRequest struct {
	ProductID int64 `json:"product_id"`
}

// AddFavorite marks a product
// POST /api/v1/favorites
func (h *FavoriteHandler) AddFavorite(c *fiber.Ctx) error {
	var req FavoriteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.ProductID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "product_id is required",
		})
	}

	if err := h.Favorites.AddFavorite(c.Context(), req.ProductID); err != nil {
		logger.Error("FavoriteHandler: failed to add favorite: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add favorite",
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"product_id": req.ProductID,
		"favorite":   true,
	})
}

// RemoveFavorite unmarks a product
// DELETE /api/v1/favorites/:product_id
func (h *FavoriteHandler) RemoveFavorite(c *fiber.Ctx) error {
	productID, err := strconv.ParseInt(c.Params("product_id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid product id",
		})
	}

	if err := h.Favorites.RemoveFavorite(c.Context(), productID); err != nil {
		logger.Error("FavoriteHandler: failed to remove favorite: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to remove favorite",
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"product_id": productID,
		"favorite":   false,
	})
}

// ListFavorites returns favorites with their current prices, newest first
// GET /api/v1/favorites
func (h *FavoriteHandler) ListFavorites(c *fiber.Ctx) error {
	favorites := h.Favorites.ListFavorites(c.Context())
	return c.JSON(fiber.Map{
		"favorites": favorites,
		"count":     len(favorites),
	})
}
