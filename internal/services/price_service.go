/**
 * @description
 * Price store read side: per-product history and latest observation.
 * History is always re-derived from storage, never cached, so it stays
 * consistent with the append-only table.
 *
 * @dependencies
 * - gorm.io/gorm
 */

package services

import (
	"context"
	"errors"

	"github.com/superprecios/backend/internal/logger"
	"github.com/superprecios/backend/internal/models"
	"gorm.io/gorm"
)

// PriceService reads the append-only price history
type PriceService struct {
	DB *gorm.DB
}

// NewPriceService creates a new PriceService
func NewPriceService(db *gorm.DB) *PriceService {
	return &PriceService{DB: db}
}

// GetHistory returns all observations for a product, oldest first.
// Storage errors and unknown products both degrade to an empty slice.
func (s *PriceService) GetHistory(ctx context.Context, productID int64) []models.PriceEntry {
	entries := []models.PriceEntry{}
	err := s.DB.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("captured_at ASC").
		Find(&entries).Error
	if err != nil {
		logger.Error("PriceService: failed to load history for product %d: %v", productID, err)
		return []models.PriceEntry{}
	}
	return entries
}

// GetLatest returns the observation with the maximum captured_at, or nil
func (s *PriceService) GetLatest(ctx context.Context, productID int64) *models.PriceEntry {
	var entry models.PriceEntry
	err := s.DB.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("captured_at DESC").
		First(&entry).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("PriceService: failed to load latest price for product %d: %v", productID, err)
		}
		return nil
	}
	return &entry
}
