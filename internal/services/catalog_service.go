/**
 * @description
 * Catalog service: canonical product registry plus price ingestion.
 * Consumes raw scraper batches, upserts products by (external_id, retailer),
 * records at most one price observation per product per calendar day, and
 * serves keyword search and the current-priced product view.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/redis/go-redis/v9 (price update pub/sub, ingest lock, cache invalidation)
 * - github.com/jackc/pgconn (duplicate-key detection on concurrent upserts)
 * - github.com/google/uuid (ingestion run IDs)
 */

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/superprecios/backend/internal/ingest"
	"github.com/superprecios/backend/internal/logger"
	"github.com/superprecios/backend/internal/models"
	"gorm.io/gorm"
)

const (
	// PriceUpdateChannel carries one JSON models.PriceUpdate per recorded observation
	PriceUpdateChannel = "prices:updates"

	// CacheKeyStats holds the serialized CatalogStats, invalidated on ingest
	CacheKeyStats = "catalog:stats"

	ingestLockKey = "catalog:ingest_lock"
	ingestLockTTL = 30 * time.Minute
)

// CatalogService owns products and their price history
type CatalogService struct {
	DB    *gorm.DB
	Redis *redis.Client // optional; nil disables caching and pub/sub

	// Coarse write lock: one ingest batch at a time within the process.
	// Cross-process runs are serialized with TryIngestLock.
	writeMu sync.Mutex
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(db *gorm.DB, rdb *redis.Client) *CatalogService {
	return &CatalogService{DB: db, Redis: rdb}
}

// IngestSummary reports what one batch did. Skipped covers rows dropped by
// validation and rows lost to storage errors; the caller can compare it to the
// batch size to detect a degraded run.
type IngestSummary struct {
	RunID          string `json:"run_id"`
	New            int    `json:"new"`
	Updated        int    `json:"updated"`
	PricesRecorded int    `json:"prices_recorded"`
	Skipped        int    `json:"skipped"`
}

// SaveProducts upserts a batch of raw scraper rows and records today's prices.
// One bad row never aborts the batch; validation failures are silently skipped.
func (s *CatalogService) SaveProducts(ctx context.Context, rows []ingest.RawProduct) IngestSummary {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	summary := IngestSummary{RunID: uuid.NewString()}
	now := time.Now()

	for _, row := range rows {
		externalID := strings.TrimSpace(row.ExternalID)
		name := strings.TrimSpace(row.Name)
		retailer := strings.TrimSpace(row.Retailer)

		if externalID == "" || name == "" || retailer == "" {
			summary.Skipped++
			continue
		}
		if !row.Price.Valid || row.Price.Value <= 0 {
			summary.Skipped++
			continue
		}

		price := row.Price.Value
		unitPrice := price
		if row.UnitPrice.Valid && row.UnitPrice.Value > 0 {
			unitPrice = row.UnitPrice.Value
		}

		product, created, err := s.upsertProduct(ctx, externalID, retailer, func(p *models.Product) {
			p.Name = name
			p.Category = strings.TrimSpace(row.Category)
			p.Format = strings.TrimSpace(row.Format)
			p.URL = strings.TrimSpace(row.URL)
			p.ImageURL = strings.TrimSpace(row.ImageURL)
		})
		if err != nil {
			logger.Error("CatalogService: failed to upsert %s/%s: %v", retailer, externalID, err)
			summary.Skipped++
			continue
		}
		if created {
			summary.New++
		} else {
			summary.Updated++
		}

		recorded, err := s.recordPrice(ctx, product, price, unitPrice, now)
		if err != nil {
			logger.Error("CatalogService: failed to record price for product %d: %v", product.ID, err)
			continue
		}
		if recorded {
			summary.PricesRecorded++
		}
	}

	s.invalidateStatsCache(ctx)

	logger.Info("CatalogService: run %s saved %d new, %d updated, %d prices, %d skipped",
		summary.RunID, summary.New, summary.Updated, summary.PricesRecorded, summary.Skipped)
	return summary
}

// upsertProduct inserts or refreshes one product row. The surrogate ID and
// creation timestamp never change; descriptive fields are last-write-wins.
func (s *CatalogService) upsertProduct(ctx context.Context, externalID, retailer string, fill func(*models.Product)) (*models.Product, bool, error) {
	var product models.Product
	err := s.DB.WithContext(ctx).
		Where("external_id = ? AND retailer = ?", externalID, retailer).
		First(&product).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		product = models.Product{ExternalID: externalID, Retailer: retailer}
		fill(&product)
		createErr := s.DB.WithContext(ctx).Create(&product).Error
		if createErr == nil {
			return &product, true, nil
		}

		// A concurrent run from another retailer scrape may have inserted the
		// same row between lookup and create; fall through to the update path.
		var pgErr *pgconn.PgError
		if !errors.As(createErr, &pgErr) || pgErr.Code != "23505" {
			return nil, false, createErr
		}
		if err := s.DB.WithContext(ctx).
			Where("external_id = ? AND retailer = ?", externalID, retailer).
			First(&product).Error; err != nil {
			return nil, false, err
		}
	} else if err != nil {
		return nil, false, err
	}

	fill(&product)
	if err := s.DB.WithContext(ctx).Model(&product).Updates(map[string]interface{}{
		"name":       product.Name,
		"category":   product.Category,
		"format":     product.Format,
		"url":        product.URL,
		"image_url":  product.ImageURL,
		"updated_at": time.Now(),
	}).Error; err != nil {
		return nil, false, err
	}

	return &product, false, nil
}

// recordPrice appends an observation unless one already exists for that
// calendar day. First write for a given product+day wins.
func (s *CatalogService) recordPrice(ctx context.Context, product *models.Product, price, unitPrice float64, capturedAt time.Time) (bool, error) {
	dayStart := time.Date(capturedAt.Year(), capturedAt.Month(), capturedAt.Day(), 0, 0, 0, 0, capturedAt.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var count int64
	err := s.DB.WithContext(ctx).Model(&models.PriceEntry{}).
		Where("product_id = ? AND captured_at >= ? AND captured_at < ?", product.ID, dayStart, dayEnd).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	entry := models.PriceEntry{
		ProductID:  product.ID,
		Price:      price,
		UnitPrice:  unitPrice,
		CapturedAt: capturedAt,
	}
	if err := s.DB.WithContext(ctx).Create(&entry).Error; err != nil {
		return false, err
	}

	s.publishPriceUpdate(ctx, models.PriceUpdate{
		ProductID:  product.ID,
		Retailer:   product.Retailer,
		Name:       product.Name,
		Price:      price,
		CapturedAt: capturedAt,
	})

	return true, nil
}

// publishPriceUpdate notifies SSE subscribers through Redis. Best-effort.
func (s *CatalogService) publishPriceUpdate(ctx context.Context, update models.PriceUpdate) {
	if s.Redis == nil {
		return
	}
	payload, err := json.Marshal(update)
	if err != nil {
		return
	}
	if err := s.Redis.Publish(ctx, PriceUpdateChannel, payload).Err(); err != nil {
		logger.Warn("CatalogService: failed to publish price update: %v", err)
	}
}

func (s *CatalogService) invalidateStatsCache(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, CacheKeyStats).Err(); err != nil {
		logger.Warn("CatalogService: failed to invalidate stats cache: %v", err)
	}
}

// pricedProductSelect is shared by every query that joins a product to its
// single most recent price observation.
const pricedProductSelect = `
	SELECT p.id, p.external_id, p.name, p.retailer, p.category, p.format,
	       p.url, p.image_url, pr.price, pr.unit_price, pr.captured_at
	FROM products p
	JOIN prices pr ON pr.id = (
		SELECT id FROM prices
		WHERE product_id = p.id
		ORDER BY captured_at DESC
		LIMIT 1
	)`

// SearchProducts returns products whose name contains every whitespace token
// of query as a case-insensitive substring, joined with their current price,
// ranked by price ascending within each retailer and capped per retailer.
//
// With no retailer filter, results are deliberately partitioned across
// retailers instead of a single global ORDER BY LIMIT, so no retailer can
// crowd the others out. An empty query returns no results, never everything.
func (s *CatalogService) SearchProducts(ctx context.Context, query, retailer string, limitPerRetailer int) []models.PricedProduct {
	tokens := strings.Fields(strings.TrimSpace(query))
	if len(tokens) == 0 {
		return []models.PricedProduct{}
	}
	if limitPerRetailer <= 0 {
		limitPerRetailer = 20
	}

	if retailer != "" {
		return s.searchRetailer(ctx, tokens, retailer, limitPerRetailer)
	}

	results := []models.PricedProduct{}
	for _, r := range s.DistinctRetailers(ctx) {
		results = append(results, s.searchRetailer(ctx, tokens, r, limitPerRetailer)...)
	}
	return results
}

func (s *CatalogService) searchRetailer(ctx context.Context, tokens []string, retailer string, limit int) []models.PricedProduct {
	sql := pricedProductSelect + " WHERE p.retailer = ?"
	args := []interface{}{retailer}
	for _, token := range tokens {
		sql += " AND LOWER(p.name) LIKE ?"
		args = append(args, "%"+strings.ToLower(token)+"%")
	}
	sql += " ORDER BY pr.price ASC LIMIT ?"
	args = append(args, limit)

	var rows []models.PricedProduct
	if err := s.DB.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		logger.Error("CatalogService: search failed for retailer %s: %v", retailer, err)
		return []models.PricedProduct{}
	}
	return rows
}

// GetProductsWithCurrentPrice returns every product joined to its most recent
// price, optionally filtered by retailer. This is the candidate universe for
// equivalence matching. Storage errors degrade to an empty result.
func (s *CatalogService) GetProductsWithCurrentPrice(ctx context.Context, retailer string) []models.PricedProduct {
	sql := pricedProductSelect
	var args []interface{}
	if retailer != "" {
		sql += " WHERE p.retailer = ?"
		args = append(args, retailer)
	}
	sql += " ORDER BY p.name ASC"

	var rows []models.PricedProduct
	if err := s.DB.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		logger.Error("CatalogService: failed to load priced products: %v", err)
		return []models.PricedProduct{}
	}
	return rows
}

// GetProduct returns one product by internal ID, or nil if missing
func (s *CatalogService) GetProduct(ctx context.Context, id int64) *models.Product {
	var product models.Product
	if err := s.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("CatalogService: failed to load product %d: %v", id, err)
		}
		return nil
	}
	return &product
}

// DistinctRetailers returns the retailers present in the catalog, sorted
func (s *CatalogService) DistinctRetailers(ctx context.Context) []string {
	var retailers []string
	err := s.DB.WithContext(ctx).Model(&models.Product{}).
		Distinct("retailer").
		Order("retailer ASC").
		Pluck("retailer", &retailers).Error
	if err != nil {
		logger.Error("CatalogService: failed to list retailers: %v", err)
		return []string{}
	}
	return retailers
}

// TryIngestLock serializes ingest runs across processes via Redis SetNX.
// Returns a release func and whether the lock was acquired. Without Redis the
// in-process mutex is the only guard, which matches single-host deployments.
func (s *CatalogService) TryIngestLock(ctx context.Context) (func(), bool) {
	if s.Redis == nil {
		return func() {}, true
	}

	token := uuid.NewString()
	ok, err := s.Redis.SetNX(ctx, ingestLockKey, token, ingestLockTTL).Result()
	if err != nil {
		logger.Warn("CatalogService: ingest lock unavailable, proceeding without it: %v", err)
		return func() {}, true
	}
	if !ok {
		return func() {}, false
	}

	release := func() {
		current, err := s.Redis.Get(context.Background(), ingestLockKey).Result()
		if err == nil && current == token {
			if err := s.Redis.Del(context.Background(), ingestLockKey).Err(); err != nil {
				logger.Warn("CatalogService: failed to release ingest lock: %v", err)
			}
		}
	}
	return release, true
}

// String implements fmt.Stringer for log-friendly summaries
func (s IngestSummary) String() string {
	return fmt.Sprintf("run=%s new=%d updated=%d prices=%d skipped=%d",
		s.RunID, s.New, s.Updated, s.PricesRecorded, s.Skipped)
}
