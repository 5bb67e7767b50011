/**
 * @description
 * One-shot feed ingestion. Reads every scraper feed file from the feed
 * directory and saves it through the catalog service, then prints statistics.
 * Falls back to an in-memory Redis when none is reachable, so ad-hoc local
 * runs don't require infrastructure.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/db
 * - backend/internal/ingest
 * - backend/internal/services
 * - github.com/alicebob/miniredis/v2
 */

package main

import (
	"context"
	"log"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/superprecios/backend/internal/config"
	"github.com/superprecios/backend/internal/db"
	"github.com/superprecios/backend/internal/ingest"
	"github.com/superprecios/backend/internal/services"
)

func main() {
	log.Println("🚀 Starting manual feed sync...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	if err := db.Migrate(pgDB); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		log.Printf("redis unavailable (%v), using in-memory fallback", err)
		mr, mrErr := miniredis.Run()
		if mrErr != nil {
			log.Fatalf("failed to start in-memory redis: %v", mrErr)
		}
		defer mr.Close()
		redisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	}

	catalog := services.NewCatalogService(pgDB, redisClient)
	stats := services.NewStatsService(pgDB, redisClient)

	ctx := context.Background()

	release, acquired := catalog.TryIngestLock(ctx)
	if !acquired {
		log.Fatalf("another ingest run is in progress, aborting")
	}
	defer release()

	batches, err := ingest.LoadDir(cfg.Ingest.FeedDir)
	if err != nil {
		log.Printf("⚠️ some feed files were skipped: %v", err)
	}
	if len(batches) == 0 {
		log.Fatalf("no feed files found in %s", cfg.Ingest.FeedDir)
	}

	for _, batch := range batches {
		summary := catalog.SaveProducts(ctx, batch.Rows)
		log.Printf("✅ %s: %s", batch.File, summary)
	}

	catalogStats := stats.GetStatistics(ctx)
	log.Printf("✅ Catalog now holds %d products from %d retailers (%d price entries)",
		catalogStats.TotalProducts, catalogStats.TotalRetailers, catalogStats.TotalPriceEntries)

	log.Println("✅ Manual feed sync completed successfully.")
}
