/**
 * @description
 * Read-only aggregate statistics across products, prices, equivalences, and
 * favorites. Must never fail: every underlying query error degrades to a
 * zero value so dependent dashboards keep rendering.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/redis/go-redis/v9 (short-TTL cache, invalidated on ingest)
 */

package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/superprecios/backend/internal/logger"
	"github.com/superprecios/backend/internal/models"
	"gorm.io/gorm"
)

// StatsCacheTTL bounds staleness between ingest runs
const StatsCacheTTL = 5 * time.Minute

// StatsService aggregates catalog-wide counters
type StatsService struct {
	DB    *gorm.DB
	Redis *redis.Client // optional
}

// NewStatsService creates a new StatsService
func NewStatsService(db *gorm.DB, rdb *redis.Client) *StatsService {
	return &StatsService{DB: db, Redis: rdb}
}

// GetStatistics returns the aggregate view, preferring Cache -> DB.
// An empty store yields all zeros and nil timestamps, never an error.
func (s *StatsService) GetStatistics(ctx context.Context) models.CatalogStats {
	if s.Redis != nil {
		if val, err := s.Redis.Get(ctx, CacheKeyStats).Result(); err == nil {
			var cached models.CatalogStats
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached
			}
			// If unmarshal fails, fall through to DB
		}
	}

	stats := s.queryStatistics(ctx)

	if s.Redis != nil {
		if data, err := json.Marshal(stats); err == nil {
			if err := s.Redis.Set(ctx, CacheKeyStats, data, StatsCacheTTL).Err(); err != nil {
				logger.Warn("StatsService: failed to cache statistics: %v", err)
			}
		}
	}

	return stats
}

func (s *StatsService) queryStatistics(ctx context.Context) models.CatalogStats {
	stats := models.CatalogStats{ProductsPerRetailer: map[string]int64{}}
	db := s.DB.WithContext(ctx)

	if err := db.Model(&models.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		logger.Error("StatsService: product count failed: %v", err)
	}
	if err := db.Model(&models.PriceEntry{}).Count(&stats.TotalPriceEntries).Error; err != nil {
		logger.Error("StatsService: price count failed: %v", err)
	}
	if err := db.Model(&models.Product{}).Distinct("retailer").Count(&stats.TotalRetailers).Error; err != nil {
		logger.Error("StatsService: retailer count failed: %v", err)
	}
	if err := db.Model(&models.Equivalence{}).Distinct("group_name").Count(&stats.TotalGroups).Error; err != nil {
		logger.Error("StatsService: group count failed: %v", err)
	}
	if err := db.Model(&models.Favorite{}).Count(&stats.TotalFavorites).Error; err != nil {
		logger.Error("StatsService: favorite count failed: %v", err)
	}

	var perRetailer []struct {
		Retailer string
		Total    int64
	}
	err := db.Model(&models.Product{}).
		Select("retailer, COUNT(*) as total").
		Group("retailer").
		Scan(&perRetailer).Error
	if err != nil {
		logger.Error("StatsService: per-retailer count failed: %v", err)
	}
	for _, row := range perRetailer {
		stats.ProductsPerRetailer[row.Retailer] = row.Total
	}

	// Min/max and distinct-day counting are done over scanned timestamps
	// instead of SQL date functions, which differ between engines.
	var first, last models.PriceEntry
	if err := db.Order("captured_at ASC").First(&first).Error; err == nil {
		t := first.CapturedAt
		stats.FirstCapture = &t
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("StatsService: first capture lookup failed: %v", err)
	}
	if err := db.Order("captured_at DESC").First(&last).Error; err == nil {
		t := last.CapturedAt
		stats.LastCapture = &t
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("StatsService: last capture lookup failed: %v", err)
	}

	var capturedAt []time.Time
	if err := db.Model(&models.PriceEntry{}).Pluck("captured_at", &capturedAt).Error; err != nil {
		logger.Error("StatsService: distinct day scan failed: %v", err)
	}
	days := map[string]struct{}{}
	for _, t := range capturedAt {
		days[t.Format("2006-01-02")] = struct{}{}
	}
	stats.DistinctDays = int64(len(days))

	return stats
}
