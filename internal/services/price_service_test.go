package services

import (
	"context"
	"testing"
	"time"

	"github.com/superprecios/backend/internal/models"
)

func TestGetHistoryOldestFirst(t *testing.T) {
	db := setupCatalogTestDB(t)
	service := NewPriceService(db)
	ctx := context.Background()

	dayOne := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	product := seedPricedProduct(t, db, "m-1", "Leche entera 1L", "Mercadona", 0.95, dayOne.AddDate(0, 0, 2))
	db.Create(&models.PriceEntry{ProductID: product.ID, Price: 0.89, UnitPrice: 0.89, CapturedAt: dayOne})
	db.Create(&models.PriceEntry{ProductID: product.ID, Price: 0.92, UnitPrice: 0.92, CapturedAt: dayOne.AddDate(0, 0, 1)})

	history := service.GetHistory(ctx, product.ID)
	if len(history) != 3 {
		t.Fatalf("history rows = %d, want 3", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].CapturedAt.Before(history[i-1].CapturedAt) {
			t.Errorf("history not ordered ascending at row %d", i)
		}
	}
	if history[0].Price != 0.89 {
		t.Errorf("oldest price = %v, want 0.89", history[0].Price)
	}
}

func TestGetHistoryUnknownProductIsEmpty(t *testing.T) {
	db := setupCatalogTestDB(t)
	service := NewPriceService(db)

	history := service.GetHistory(context.Background(), 9999)
	if history == nil {
		t.Fatal("history should be an empty slice, not nil")
	}
	if len(history) != 0 {
		t.Errorf("history rows = %d, want 0", len(history))
	}
}

func TestGetLatestReturnsMostRecent(t *testing.T) {
	db := setupCatalogTestDB(t)
	service := NewPriceService(db)
	ctx := context.Background()

	dayOne := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	product := seedPricedProduct(t, db, "m-1", "Leche entera 1L", "Mercadona", 0.95, dayOne)
	db.Create(&models.PriceEntry{ProductID: product.ID, Price: 0.99, UnitPrice: 0.99, CapturedAt: dayOne.AddDate(0, 0, 1)})

	latest := service.GetLatest(ctx, product.ID)
	if latest == nil {
		t.Fatal("expected a latest price")
	}
	if latest.Price != 0.99 {
		t.Errorf("latest price = %v, want 0.99", latest.Price)
	}

	if missing := service.GetLatest(ctx, 9999); missing != nil {
		t.Errorf("unknown product returned %+v, want nil", missing)
	}
}
