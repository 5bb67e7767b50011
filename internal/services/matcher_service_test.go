package services

import (
	"context"
	"testing"
	"time"

	"github.com/superprecios/backend/internal/matching"
	"github.com/superprecios/backend/internal/models"
	"gorm.io/gorm"
)

func setupMatcherTest(t *testing.T) (*MatcherService, *gorm.DB) {
	t.Helper()

	db := setupCatalogTestDB(t)
	catalog := NewCatalogService(db, nil)
	matcher := NewMatcherService(db, catalog, matching.TokenSortScorer{})
	return matcher, db
}

func TestCreateManualGroupValidation(t *testing.T) {
	matcher, _ := setupMatcherTest(t)
	ctx := context.Background()

	if err := matcher.CreateManualGroup(ctx, "   ", []int64{1}); err == nil {
		t.Error("expected error for blank group name")
	}
	if err := matcher.CreateManualGroup(ctx, "Leche entera 1L", nil); err == nil {
		t.Error("expected error for empty member list")
	}
}

func TestCreateManualGroupIsIdempotent(t *testing.T) {
	matcher, db := setupMatcherTest(t)
	ctx := context.Background()
	now := time.Now()

	p1 := seedPricedProduct(t, db, "m-1", "Leche entera 1L", "Mercadona", 0.95, now)
	p2 := seedPricedProduct(t, db, "c-1", "Leche entera 1L", "Carrefour", 0.89, now)
	p3 := seedPricedProduct(t, db, "l-1", "Leche entera 1L", "Lidl", 0.85, now)

	if err := matcher.CreateManualGroup(ctx, "Leche entera 1L", []int64{p1.ID, p2.ID}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	// Re-create with an overlapping member set: no duplicates, new member added.
	if err := matcher.CreateManualGroup(ctx, "Leche entera 1L", []int64{p2.ID, p3.ID}); err != nil {
		t.Fatalf("second create failed: %v", err)
	}

	var count int64
	db.Model(&models.Equivalence{}).Where("group_name = ?", "Leche entera 1L").Count(&count)
	if count != 3 {
		t.Errorf("membership rows = %d, want 3", count)
	}
}

func TestGetGroupOrderedByPrice(t *testing.T) {
	matcher, db := setupMatcherTest(t)
	ctx := context.Background()
	now := time.Now()

	p1 := seedPricedProduct(t, db, "m-1", "Leche entera 1L", "Mercadona", 0.95, now)
	p2 := seedPricedProduct(t, db, "c-1", "Leche entera 1L", "Carrefour", 0.89, now)
	p3 := seedPricedProduct(t, db, "l-1", "Leche entera 1L", "Lidl", 1.05, now)

	if err := matcher.CreateManualGroup(ctx, "Leche entera 1L", []int64{p1.ID, p2.ID, p3.ID}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	members := matcher.GetGroup(ctx, "Leche entera 1L")
	if len(members) != 3 {
		t.Fatalf("members = %d, want 3", len(members))
	}
	if members[0].Retailer != "Carrefour" || members[2].Retailer != "Lidl" {
		t.Errorf("members not ordered cheapest first: %s, %s, %s",
			members[0].Retailer, members[1].Retailer, members[2].Retailer)
	}

	if unknown := matcher.GetGroup(ctx, "no existe"); len(unknown) != 0 {
		t.Errorf("unknown group returned %d members, want 0", len(unknown))
	}
}

func TestFindEquivalentsScoresAndFilters(t *testing.T) {
	matcher, db := setupMatcherTest(t)
	ctx := context.Background()
	now := time.Now()

	seedPricedProduct(t, db, "m-1", "Leche entera 1L", "Mercadona", 0.95, now)
	seedPricedProduct(t, db, "c-1", "1L Leche entera Carrefour", "Carrefour", 0.89, now)
	seedPricedProduct(t, db, "l-1", "Pan de molde 500g", "Lidl", 1.10, now)

	results := matcher.FindEquivalents(ctx, "Leche entera 1L", 70, 10)
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	// Token order does not matter, so the exact name scores 100 and leads.
	if results[0].Score != 100 {
		t.Errorf("top score = %v, want 100", results[0].Score)
	}
	if results[0].Score < results[1].Score {
		t.Error("results not sorted by score descending")
	}
	for _, r := range results {
		if r.Score < 70 {
			t.Errorf("result below threshold: %q scored %v", r.Name, r.Score)
		}
	}

	if empty := matcher.FindEquivalents(ctx, "  ", 70, 10); len(empty) != 0 {
		t.Errorf("blank query returned %d results, want 0", len(empty))
	}
}

func TestFindEquivalentsForProductExcludesOwnRetailer(t *testing.T) {
	matcher, db := setupMatcherTest(t)
	ctx := context.Background()
	now := time.Now()

	ref := seedPricedProduct(t, db, "m-1", "Leche entera 1L", "Mercadona", 0.95, now)
	seedPricedProduct(t, db, "m-2", "Leche entera 1L brik", "Mercadona", 0.93, now)
	seedPricedProduct(t, db, "c-1", "Leche entera 1L", "Carrefour", 0.89, now)

	results := matcher.FindEquivalentsForProduct(ctx, ref.ID, 60)
	for _, r := range results {
		if r.Retailer == "Mercadona" {
			t.Errorf("suggestion from own retailer leaked: %q", r.Name)
		}
	}
	if len(results) == 0 {
		t.Error("expected at least one cross-retailer suggestion")
	}

	if unknown := matcher.FindEquivalentsForProduct(ctx, 9999, 60); len(unknown) != 0 {
		t.Errorf("unknown product returned %d suggestions, want 0", len(unknown))
	}
}

func TestAutoDetectCreatesCrossRetailerGroups(t *testing.T) {
	matcher, db := setupMatcherTest(t)
	ctx := context.Background()
	now := time.Now()

	// Carrefour sorts first, so it is the reference retailer.
	seedPricedProduct(t, db, "c-1", "Leche entera 1L", "Carrefour", 0.95, now)
	seedPricedProduct(t, db, "c-2", "Pan de molde 500g", "Carrefour", 1.10, now)
	seedPricedProduct(t, db, "m-1", "1L Leche entera", "Mercadona", 0.89, now)
	seedPricedProduct(t, db, "m-2", "Atun claro en aceite", "Mercadona", 1.50, now)

	created := matcher.AutoDetectEquivalences(ctx, 85)
	if created != 1 {
		t.Fatalf("created = %d, want 1", created)
	}

	names := matcher.ListGroupNames(ctx)
	if len(names) != 1 || names[0] != "Leche entera 1L" {
		t.Fatalf("group names = %v, want [Leche entera 1L]", names)
	}

	members := matcher.GetGroup(ctx, "Leche entera 1L")
	if len(members) != 2 {
		t.Fatalf("members = %d, want 2", len(members))
	}
	if members[0].Retailer != "Mercadona" {
		t.Errorf("cheapest member = %s, want Mercadona", members[0].Retailer)
	}
}

func TestAutoDetectHonorsThreshold(t *testing.T) {
	matcher, db := setupMatcherTest(t)
	ctx := context.Background()
	now := time.Now()

	// Similar but not similar enough for unattended grouping.
	seedPricedProduct(t, db, "c-1", "Leche entera", "Carrefour", 0.95, now)
	seedPricedProduct(t, db, "m-1", "Leche desnatada", "Mercadona", 0.89, now)

	if created := matcher.AutoDetectEquivalences(ctx, 85); created != 0 {
		t.Errorf("created = %d, want 0 below threshold", created)
	}

	var count int64
	db.Model(&models.Equivalence{}).Count(&count)
	if count != 0 {
		t.Errorf("equivalence rows = %d, want 0", count)
	}
}

func TestAutoDetectNeedsTwoRetailers(t *testing.T) {
	matcher, db := setupMatcherTest(t)
	ctx := context.Background()

	seedPricedProduct(t, db, "m-1", "Leche entera 1L", "Mercadona", 0.95, time.Now())

	if created := matcher.AutoDetectEquivalences(ctx, 85); created != 0 {
		t.Errorf("created = %d, want 0 with a single retailer", created)
	}
}

func TestAutoDetectRefusesCoverageScorer(t *testing.T) {
	db := setupCatalogTestDB(t)
	catalog := NewCatalogService(db, nil)
	matcher := NewMatcherService(db, catalog, matching.CoverageScorer{})
	ctx := context.Background()
	now := time.Now()

	seedPricedProduct(t, db, "c-1", "Leche entera 1L", "Carrefour", 0.95, now)
	seedPricedProduct(t, db, "m-1", "Leche entera 1L", "Mercadona", 0.89, now)

	if created := matcher.AutoDetectEquivalences(ctx, 85); created != 0 {
		t.Errorf("created = %d, want 0 under the fallback scorer", created)
	}

	var count int64
	db.Model(&models.Equivalence{}).Count(&count)
	if count != 0 {
		t.Errorf("equivalence rows = %d, want 0", count)
	}
}

func TestGetGroupHistoryMergesMembersOldestFirst(t *testing.T) {
	matcher, db := setupMatcherTest(t)
	ctx := context.Background()

	dayOne := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	dayTwo := dayOne.AddDate(0, 0, 1)

	p1 := seedPricedProduct(t, db, "m-1", "Leche entera 1L", "Mercadona", 0.95, dayOne)
	db.Create(&models.PriceEntry{ProductID: p1.ID, Price: 0.99, UnitPrice: 0.99, CapturedAt: dayTwo})
	p2 := seedPricedProduct(t, db, "c-1", "Leche entera 1L", "Carrefour", 0.89, dayOne)
	db.Create(&models.PriceEntry{ProductID: p2.ID, Price: 0.91, UnitPrice: 0.91, CapturedAt: dayTwo})

	if err := matcher.CreateManualGroup(ctx, "Leche entera 1L", []int64{p1.ID, p2.ID}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	history := matcher.GetGroupHistory(ctx, "Leche entera 1L")
	if len(history) != 4 {
		t.Fatalf("history rows = %d, want 4", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].CapturedAt.Before(history[i-1].CapturedAt) {
			t.Errorf("history not ordered ascending at row %d", i)
		}
	}
	retailers := map[string]bool{}
	for _, point := range history {
		retailers[point.Retailer] = true
	}
	if !retailers["Mercadona"] || !retailers["Carrefour"] {
		t.Errorf("history missing a retailer: %v", retailers)
	}
}

func TestScoreCandidatesStableOrdering(t *testing.T) {
	matcher, _ := setupMatcherTest(t)

	candidates := []models.PricedProduct{
		{ID: 1, Name: "Aceite de oliva virgen extra 1L"},
		{ID: 2, Name: "Aceite de girasol 1L"},
		{ID: 3, Name: "Vinagre de vino"},
	}

	scored := matcher.ScoreCandidates("Aceite de oliva virgen extra 1L", candidates, 50)
	if len(scored) == 0 {
		t.Fatal("expected at least one candidate above threshold")
	}
	if scored[0].ID != 1 || scored[0].Score != 100 {
		t.Errorf("top candidate = %d (%v), want exact match first", scored[0].ID, scored[0].Score)
	}
	for _, s := range scored {
		if s.ID == 3 {
			t.Error("unrelated candidate survived the threshold")
		}
	}
}
