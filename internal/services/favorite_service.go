/**
 * @description
 * Favorite service: user-selected product markers.
 * Thin CRUD over the favorites table, listed with current prices.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/models
 */

package services

import (
	"context"

	"github.com/superprecios/backend/internal/logger"
	"github.com/superprecios/backend/internal/models"
	"gorm.io/gorm"
)

// FavoriteService handles product bookmark operations
type FavoriteService struct {
	DB *gorm.DB
}

// NewFavoriteService creates a new FavoriteService
func NewFavoriteService(db *gorm.DB) *FavoriteService {
	return &FavoriteService{DB: db}
}

// AddFavorite marks a product as favorite. Adding twice is a no-op.
func (s *FavoriteService) AddFavorite(ctx context.Context, productID int64) error {
	favorite := models.Favorite{ProductID: productID}

	// Use FirstOrCreate to avoid duplicates
	result := s.DB.WithContext(ctx).
		Where("product_id = ?", productID).
		FirstOrCreate(&favorite)

	if result.Error != nil {
		logger.Error("FavoriteService: failed to add favorite %d: %v", productID, result.Error)
		return result.Error
	}
	return nil
}

// RemoveFavorite unmarks a product. Removing a non-favorite is a no-op.
func (s *FavoriteService) RemoveFavorite(ctx context.Context, productID int64) error {
	result := s.DB.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.Favorite{})

	if result.Error != nil {
		logger.Error("FavoriteService: failed to remove favorite %d: %v", productID, result.Error)
		return result.Error
	}
	return nil
}

// IsFavorite checks whether a product is marked
func (s *FavoriteService) IsFavorite(ctx context.Context, productID int64) (bool, error) {
	var count int64
	result := s.DB.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("product_id = ?", productID).
		Count(&count)

	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// ListFavorites returns all favorites joined to their current price, newest
// first. Storage errors degrade to an empty result.
func (s *FavoriteService) ListFavorites(ctx context.Context) []models.FavoriteItem {
	sql := `
		SELECT p.id AS product_id, p.name, p.retailer, p.format, p.image_url,
		       pr.price, pr.unit_price, pr.captured_at, f.added_at
		FROM favorites f
		JOIN products p ON p.id = f.product_id
		LEFT JOIN prices pr ON pr.id = (
			SELECT id FROM prices
			WHERE product_id = p.id
			ORDER BY captured_at DESC
			LIMIT 1
		)
		ORDER BY f.added_at DESC`

	var items []models.FavoriteItem
	if err := s.DB.WithContext(ctx).Raw(sql).Scan(&items).Error; err != nil {
		logger.Error("FavoriteService: failed to list favorites: %v", err)
		return []models.FavoriteItem{}
	}
	return items
}
