/**
 * @description
 * Product and price history database models.
 * Maps to the 'products' and 'prices' tables in PostgreSQL.
 *
 * @dependencies
 * - gorm.io/gorm
 */

package models

import (
	"time"
)

// Product represents one catalog entry per (retailer, external_id).
// The surrogate ID is the only stable join key; descriptive fields are
// overwritten in place on every re-scrape.
type Product struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ExternalID string    `gorm:"column:external_id;not null;uniqueIndex:idx_products_external_retailer" json:"external_id"`
	Retailer   string    `gorm:"column:retailer;not null;index;uniqueIndex:idx_products_external_retailer" json:"retailer"`
	Name       string    `gorm:"column:name;not null;index" json:"name"`
	Category   string    `gorm:"column:category" json:"category"`
	Format     string    `gorm:"column:format" json:"format"`
	URL        string    `gorm:"column:url" json:"url"`
	ImageURL   string    `gorm:"column:image_url" json:"image_url"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName overrides the table name used by Product to `products`
func (Product) TableName() string {
	return "products"
}

// PriceEntry represents one price observation for a product.
// Rows are append-only; at most one row is kept per product per calendar day.
type PriceEntry struct {
	ID        uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64   `gorm:"column:product_id;not null;index:idx_prices_product" json:"product_id"`
	Price     float64 `gorm:"column:price;type:decimal(10,2)" json:"price"`
	// UnitPrice falls back to Price when the retailer doesn't publish a per-unit figure,
	// so callers must not assume it is independently meaningful.
	UnitPrice  float64   `gorm:"column:unit_price;type:decimal(10,2)" json:"unit_price"`
	CapturedAt time.Time `gorm:"column:captured_at;index:idx_prices_captured" json:"captured_at"`
}

// TableName overrides the table name used by PriceEntry to `prices`
func (PriceEntry) TableName() string {
	return "prices"
}

// PricedProduct is a read-only view of a product joined to its most recent
// price observation. It is the candidate universe for search and matching.
type PricedProduct struct {
	ID         int64      `json:"id"`
	ExternalID string     `json:"external_id"`
	Name       string     `json:"name"`
	Retailer   string     `json:"retailer"`
	Category   string     `json:"category"`
	Format     string     `json:"format"`
	URL        string     `json:"url"`
	ImageURL   string     `json:"image_url"`
	Price      float64    `json:"price"`
	UnitPrice  float64    `json:"unit_price"`
	CapturedAt *time.Time `json:"captured_at"`
}

// ScoredProduct is a PricedProduct annotated with a similarity score in [0,100]
type ScoredProduct struct {
	PricedProduct
	Score float64 `json:"score"`
}

// PriceUpdate is the payload published on the Redis price channel when a new
// observation is recorded during ingestion.
type PriceUpdate struct {
	ProductID  int64     `json:"product_id"`
	Retailer   string    `json:"retailer"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	CapturedAt time.Time `json:"captured_at"`
}
