package services

import (
	"context"
	"testing"
	"time"

	"github.com/superprecios/backend/internal/models"
)

func TestFavoriteRoundTrip(t *testing.T) {
	db := setupCatalogTestDB(t)
	service := NewFavoriteService(db)
	ctx := context.Background()

	product := seedPricedProduct(t, db, "m-1", "Leche entera 1L", "Mercadona", 0.95, time.Now())

	if err := service.AddFavorite(ctx, product.ID); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	isFav, err := service.IsFavorite(ctx, product.ID)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !isFav {
		t.Error("product should be favorite after add")
	}

	items := service.ListFavorites(ctx)
	if len(items) != 1 {
		t.Fatalf("favorites = %d, want 1", len(items))
	}
	if items[0].ProductID != product.ID || items[0].Price != 0.95 {
		t.Errorf("unexpected favorite item: %+v", items[0])
	}

	if err := service.RemoveFavorite(ctx, product.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	isFav, err = service.IsFavorite(ctx, product.ID)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if isFav {
		t.Error("product should not be favorite after remove")
	}
}

func TestAddFavoriteTwiceKeepsOneRow(t *testing.T) {
	db := setupCatalogTestDB(t)
	service := NewFavoriteService(db)
	ctx := context.Background()

	product := seedPricedProduct(t, db, "m-1", "Leche entera 1L", "Mercadona", 0.95, time.Now())

	if err := service.AddFavorite(ctx, product.ID); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := service.AddFavorite(ctx, product.ID); err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	var count int64
	db.Model(&models.Favorite{}).Count(&count)
	if count != 1 {
		t.Errorf("favorite rows = %d, want 1", count)
	}
}

func TestRemoveFavoriteMissingIsNoOp(t *testing.T) {
	db := setupCatalogTestDB(t)
	service := NewFavoriteService(db)

	if err := service.RemoveFavorite(context.Background(), 9999); err != nil {
		t.Errorf("removing a non-favorite should not error, got %v", err)
	}
}

func TestListFavoritesShowsCurrentPrice(t *testing.T) {
	db := setupCatalogTestDB(t)
	service := NewFavoriteService(db)
	ctx := context.Background()

	product := seedPricedProduct(t, db, "m-1", "Leche entera 1L", "Mercadona", 0.95,
		time.Now().AddDate(0, 0, -1))
	db.Create(&models.PriceEntry{ProductID: product.ID, Price: 0.99, UnitPrice: 0.99, CapturedAt: time.Now()})

	if err := service.AddFavorite(ctx, product.ID); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	items := service.ListFavorites(ctx)
	if len(items) != 1 {
		t.Fatalf("favorites = %d, want 1", len(items))
	}
	if items[0].Price != 0.99 {
		t.Errorf("price = %v, want latest 0.99", items[0].Price)
	}
}
