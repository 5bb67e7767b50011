/**
 * @description
 * Worker Service Entry Point.
 * Responsible for background tasks:
 * 1. Re-ingesting the scraper feed directory on a fixed interval.
 * 2. Optionally running automatic equivalence detection after each ingest.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/db
 * - backend/internal/ingest
 * - backend/internal/matching
 * - backend/internal/services
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/superprecios/backend/internal/config"
	"github.com/superprecios/backend/internal/db"
	"github.com/superprecios/backend/internal/ingest"
	"github.com/superprecios/backend/internal/logger"
	"github.com/superprecios/backend/internal/matching"
	"github.com/superprecios/backend/internal/services"
)

func main() {
	logger.Info("🔥 Starting SuperPrecios Worker...")

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	// 2. Connect DBs
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Postgres connection failed: %v", err)
	}
	if err := db.Migrate(pgDB); err != nil {
		logger.Fatal("Schema migration failed: %v", err)
	}

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("Redis connection failed: %v", err)
	}

	// 3. Initialize Services
	catalog := services.NewCatalogService(pgDB, redisClient)
	scorer := matching.NewScorer(cfg.Matcher.Scorer)
	matcher := services.NewMatcherService(pgDB, catalog, scorer)

	// 4. Context with Cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("Shutdown signal received")
		cancel()
	}()

	// 5. Run once immediately, then on the configured interval
	runIngestCycle(ctx, cfg, catalog, matcher)

	ticker := time.NewTicker(cfg.Ingest.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Worker stopped")
			return
		case <-ticker.C:
			runIngestCycle(ctx, cfg, catalog, matcher)
		}
	}
}

func runIngestCycle(ctx context.Context, cfg *config.Config, catalog *services.CatalogService, matcher *services.MatcherService) {
	release, acquired := catalog.TryIngestLock(ctx)
	if !acquired {
		logger.Warn("Skipping cycle: another ingest run holds the lock")
		return
	}
	defer release()

	batches, err := ingest.LoadDir(cfg.Ingest.FeedDir)
	if err != nil {
		logger.Warn("Some feed files were skipped: %v", err)
	}
	if len(batches) == 0 {
		logger.Info("No feed files in %s, nothing to ingest", cfg.Ingest.FeedDir)
		return
	}

	for _, batch := range batches {
		summary := catalog.SaveProducts(ctx, batch.Rows)
		logger.Info("Ingested %s: %s", batch.File, summary)
	}

	if cfg.Ingest.AutoDetect {
		created := matcher.AutoDetectEquivalences(ctx, float64(cfg.Matcher.AutoThreshold))
		logger.Info("Auto-detection pass created %d groups", created)
	}
}
