/**
 * @description
 * API Route definitions.
 * Sets up the router groups and assigns handlers.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/api/handlers
 * - backend/internal/api/middleware
 * - backend/internal/services
 * - backend/internal/matching
 */

package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/superprecios/backend/internal/api/handlers"
	"github.com/superprecios/backend/internal/api/middleware"
	"github.com/superprecios/backend/internal/config"
	"github.com/superprecios/backend/internal/matching"
	"github.com/superprecios/backend/internal/services"
	"gorm.io/gorm"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {
	// 1. Initialize Services
	catalogService := services.NewCatalogService(db, rdb)
	priceService := services.NewPriceService(db)
	statsService := services.NewStatsService(db, rdb)
	favoriteService := services.NewFavoriteService(db)
	scorer := matching.NewScorer(cfg.Matcher.Scorer)
	matcherService := services.NewMatcherService(db, catalogService, scorer)
	streamHub := services.NewPriceStreamHub(rdb, services.PriceUpdateChannel)

	// 2. Initialize Handlers
	productHandler := handlers.NewProductHandler(catalogService, priceService)
	groupHandler := handlers.NewGroupHandler(matcherService)
	favoriteHandler := handlers.NewFavoriteHandler(favoriteService)
	statsHandler := handlers.NewStatsHandler(statsService)
	streamHandler := handlers.NewStreamHandler(streamHub)

	// 3. Define Routes
	apiGroup := app.Group("/api")
	v1 := apiGroup.Group("/v1")

	apiGroup.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Product Routes (Public)
	products := v1.Group("/products")
	products.Get("/search", productHandler.SearchProducts)
	products.Get("/current", productHandler.GetCurrentPrices)
	products.Get("/stream", streamHandler.StreamPriceUpdates)
	products.Get("/:id/history", productHandler.GetPriceHistory)
	products.Get("/:id/latest", productHandler.GetLatestPrice)

	// Statistics (Public)
	v1.Get("/stats", statsHandler.GetStatistics)

	// Equivalence Groups (reads public, mutations job-protected)
	groups := v1.Group("/groups")
	groups.Get("/", groupHandler.ListGroups)
	groups.Get("/suggest", groupHandler.SuggestEquivalents)
	groups.Post("/", middleware.JobProtected(cfg.Ingest.JobSecret), groupHandler.CreateGroup)
	groups.Post("/auto-detect", middleware.JobProtected(cfg.Ingest.JobSecret), groupHandler.AutoDetect)
	groups.Get("/:name", groupHandler.GetGroup)
	groups.Get("/:name/history", groupHandler.GetGroupHistory)

	// Favorites (Public; the dashboard is single-user)
	favorites := v1.Group("/favorites")
	favorites.Get("/", favoriteHandler.ListFavorites)
	favorites.Post("/", favoriteHandler.AddFavorite)
	favorites.Delete("/:product_id", favoriteHandler.RemoveFavorite)
}
