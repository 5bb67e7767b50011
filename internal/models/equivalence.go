/**
 * @description
 * Equivalence group and favorite database models.
 * Maps to the 'equivalences' and 'favorites' tables in PostgreSQL.
 *
 * Groups are stored as a normalized membership table (group_name, product_id)
 * with no cardinality limit, so adding a retailer never requires a schema change.
 *
 * @dependencies
 * - gorm.io/gorm
 */

package models

import (
	"time"
)

// Equivalence is one membership row of a named cross-retailer group.
// A group is the set of rows sharing group_name; duplicate membership rows
// are prevented, duplicate groups with the same name are tolerated.
type Equivalence struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	GroupName string    `gorm:"column:group_name;not null;index;uniqueIndex:idx_equivalences_group_product" json:"group_name"`
	ProductID int64     `gorm:"column:product_id;not null;uniqueIndex:idx_equivalences_group_product" json:"product_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName overrides the table name used by Equivalence to `equivalences`
func (Equivalence) TableName() string {
	return "equivalences"
}

// GroupPricePoint is one row of a group's merged price history, tagged with
// the owning product's retailer and name for cross-retailer comparison.
type GroupPricePoint struct {
	ProductID  int64     `json:"product_id"`
	Retailer   string    `json:"retailer"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	UnitPrice  float64   `json:"unit_price"`
	CapturedAt time.Time `json:"captured_at"`
}

// Favorite marks a single product as user-selected. Unique per product.
type Favorite struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64     `gorm:"column:product_id;not null;uniqueIndex" json:"product_id"`
	AddedAt   time.Time `gorm:"column:added_at;autoCreateTime" json:"added_at"`
}

// TableName overrides the table name used by Favorite to `favorites`
func (Favorite) TableName() string {
	return "favorites"
}

// FavoriteItem is a favorite joined to its product and current price
type FavoriteItem struct {
	ProductID  int64      `json:"product_id"`
	Name       string     `json:"name"`
	Retailer   string     `json:"retailer"`
	Format     string     `json:"format"`
	ImageURL   string     `json:"image_url"`
	Price      float64    `json:"price"`
	UnitPrice  float64    `json:"unit_price"`
	CapturedAt *time.Time `json:"captured_at"`
	AddedAt    time.Time  `json:"added_at"`
}

// CatalogStats is the read-only aggregate view consumed by dashboards.
// Every field degrades to its zero value when the store is empty or a query fails.
type CatalogStats struct {
	TotalProducts       int64            `json:"total_products"`
	TotalPriceEntries   int64            `json:"total_price_entries"`
	TotalRetailers      int64            `json:"total_retailers"`
	TotalGroups         int64            `json:"total_groups"`
	TotalFavorites      int64            `json:"total_favorites"`
	DistinctDays        int64            `json:"distinct_days"`
	ProductsPerRetailer map[string]int64 `json:"products_per_retailer"`
	FirstCapture        *time.Time       `json:"first_capture"`
	LastCapture         *time.Time       `json:"last_capture"`
}
