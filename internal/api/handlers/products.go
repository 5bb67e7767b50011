/**
 * @description
 * Product API handlers: search, current-priced catalog view, and per-product
 * price history. Read endpoints always answer 200 with a possibly-empty body;
 * storage failures are swallowed into empty results by the services.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/superprecios/backend/internal/services"
)

// DefaultSearchLimit matches the dashboard search box page size
const DefaultSearchLimit = 20

type ProductHandler struct {
	Catalog *services.CatalogService
	Prices  *services.PriceService
}

func NewProductHandler(catalog *services.CatalogService, prices *services.PriceService) *ProductHandler {
	return &ProductHandler{Catalog: catalog, Prices: prices}
}

// SearchProducts performs a token-AND keyword search over product names
// GET /api/v1/products/search?q=&retailer=&limit=
func (h *ProductHandler) SearchProducts(c *fiber.Ctx) error {
	query := c.Query("q")
	retailer := c.Query("retailer")
	limit := c.QueryInt("limit", DefaultSearchLimit)

	// Unfiltered searches reserve a slice of the limit for every retailer so
	// the first retailer in insertion order can't fill the whole page.
	perRetailer := limit
	if retailer == "" {
		perRetailer = limit / 5
		if perRetailer < 4 {
			perRetailer = 4
		}
	}

	results := h.Catalog.SearchProducts(c.Context(), query, retailer, perRetailer)
	return c.JSON(fiber.Map{
		"products": results,
		"count":    len(results),
	})
}

// GetCurrentPrices returns every product with its most recent price
// GET /api/v1/products/current?retailer=
func (h *ProductHandler) GetCurrentPrices(c *fiber.Ctx) error {
	retailer := c.Query("retailer")

	products := h.Catalog.GetProductsWithCurrentPrice(c.Context(), retailer)
	return c.JSON(fiber.Map{
		"products": products,
		"count":    len(products),
	})
}

// GetPriceHistory returns a product's observations, oldest first
// GET /api/v1/products/:id/history
func (h *ProductHandler) GetPriceHistory(c *fiber.Ctx) error {
	productID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid product id",
		})
	}

	history := h.Prices.GetHistory(c.Context(), productID)
	return c.JSON(fiber.Map{
		"product_id": productID,
		"history":    history,
		"count":      len(history),
	})
}

// GetLatestPrice returns a product's most recent observation
// GET /api/v1/products/:id/latest
func (h *ProductHandler) GetLatestPrice(c *fiber.Ctx) error {
	productID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid product id",
		})
	}

	latest := h.Prices.GetLatest(c.Context(), productID)
	if latest == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No price recorded for product",
		})
	}
	return c.JSON(latest)
}
