/**
 * @description
 * Equivalence engine: groups near-identical products across retailers.
 * Supports the trusted manual path, human-assisted suggestions, and a fully
 * automatic greedy matcher gated behind the token-sort scorer.
 *
 * Groups are additive only: never merged, split, or deleted by the system.
 * Overlapping groups from separate auto runs are tolerated and curated by hand.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/matching (similarity scorer strategy)
 */

package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/superprecios/backend/internal/logger"
	"github.com/superprecios/backend/internal/matching"
	"github.com/superprecios/backend/internal/models"
	"gorm.io/gorm"
)

// DefaultSuggestLimit caps suggestion lists when the caller doesn't say
const DefaultSuggestLimit = 10

// MatcherService builds and queries cross-retailer equivalence groups
type MatcherService struct {
	DB      *gorm.DB
	Catalog *CatalogService
	Scorer  matching.Scorer
}

// NewMatcherService creates a new MatcherService
func NewMatcherService(db *gorm.DB, catalog *CatalogService, scorer matching.Scorer) *MatcherService {
	return &MatcherService{DB: db, Catalog: catalog, Scorer: scorer}
}

// CreateManualGroup persists a group with exactly the given members.
// This is the trusted human-in-the-loop path: no threshold, no validation of
// cross-retailer distinctness. Duplicate membership rows are prevented.
func (s *MatcherService) CreateManualGroup(ctx context.Context, groupName string, productIDs []int64) error {
	groupName = strings.TrimSpace(groupName)
	if groupName == "" {
		return fmt.Errorf("group name is required")
	}
	if len(productIDs) == 0 {
		return fmt.Errorf("at least one product is required")
	}

	var firstErr error
	for _, productID := range productIDs {
		membership := models.Equivalence{GroupName: groupName, ProductID: productID}
		// FirstOrCreate keeps re-creation with overlapping members idempotent
		err := s.DB.WithContext(ctx).
			Where("group_name = ? AND product_id = ?", groupName, productID).
			FirstOrCreate(&membership).Error
		if err != nil {
			logger.Error("MatcherService: failed to add product %d to group %q: %v", productID, groupName, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// FindEquivalents is the human-assisted suggestion path: candidate search for
// the query text, similarity scoring against it, threshold filter, descending
// sort. A person reviews the result and calls CreateManualGroup with a subset.
func (s *MatcherService) FindEquivalents(ctx context.Context, query string, threshold float64, limit int) []models.ScoredProduct {
	if strings.TrimSpace(query) == "" {
		return []models.ScoredProduct{}
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}

	candidates := s.Catalog.SearchProducts(ctx, query, "", limit)
	scored := s.ScoreCandidates(query, candidates, threshold)
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// FindEquivalentsForProduct suggests equivalents for an existing product,
// excluding its own retailer. Unknown products yield an empty result.
func (s *MatcherService) FindEquivalentsForProduct(ctx context.Context, productID int64, threshold float64) []models.ScoredProduct {
	product := s.Catalog.GetProduct(ctx, productID)
	if product == nil {
		return []models.ScoredProduct{}
	}

	suggestions := s.FindEquivalents(ctx, product.Name, threshold, DefaultSuggestLimit)
	filtered := suggestions[:0]
	for _, suggestion := range suggestions {
		if suggestion.Retailer != product.Retailer {
			filtered = append(filtered, suggestion)
		}
	}
	return filtered
}

// ScoreCandidates assigns each candidate a similarity score against query,
// drops candidates below threshold, and sorts the rest descending by score.
// The sort is stable so equal scores keep their search ranking.
func (s *MatcherService) ScoreCandidates(query string, candidates []models.PricedProduct, threshold float64) []models.ScoredProduct {
	scored := []models.ScoredProduct{}
	if s.Scorer == nil {
		return scored
	}

	for _, candidate := range candidates {
		score := s.Scorer.Score(query, candidate.Name)
		if score < threshold {
			continue
		}
		scored = append(scored, models.ScoredProduct{PricedProduct: candidate, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// AutoDetectEquivalences runs the fully automatic pass and returns the number
// of groups created. Intended for a high threshold (85+).
//
// The first retailer in sorted order is the reference set. For each reference
// product, every other retailer is searched independently for its single best
// match at or above threshold (ties: first encountered). Matching is greedy,
// not globally optimal: a reference product may claim another's best match,
// and overlapping groups across runs are allowed. Both are accepted because
// groups are append-only and manually curable.
//
// Refuses to run — returns 0 — with fewer than two retailers, or when only
// the coverage fallback scorer is configured: unattended grouping on a weak
// heuristic produces confident-looking but wrong groups.
func (s *MatcherService) AutoDetectEquivalences(ctx context.Context, threshold float64) int {
	if s.Scorer == nil || s.Scorer.Kind() != matching.KindTokenSort {
		logger.Warn("MatcherService: auto-detection refused, token-sort scorer unavailable")
		return 0
	}

	all := s.Catalog.GetProductsWithCurrentPrice(ctx, "")
	if len(all) == 0 {
		return 0
	}

	byRetailer := map[string][]models.PricedProduct{}
	for _, product := range all {
		byRetailer[product.Retailer] = append(byRetailer[product.Retailer], product)
	}

	retailers := make([]string, 0, len(byRetailer))
	for retailer := range byRetailer {
		retailers = append(retailers, retailer)
	}
	sort.Strings(retailers)

	if len(retailers) < 2 {
		logger.Info("MatcherService: auto-detection needs at least 2 retailers, found %d", len(retailers))
		return 0
	}

	reference := retailers[0]
	created := 0

	for _, refProduct := range byRetailer[reference] {
		memberIDs := []int64{refProduct.ID}

		for _, other := range retailers[1:] {
			if match, ok := bestMatch(s.Scorer, refProduct.Name, byRetailer[other], threshold); ok {
				memberIDs = append(memberIDs, match.ID)
			}
		}

		// Persist only when at least one cross-retailer match was found
		if len(memberIDs) < 2 {
			continue
		}
		if err := s.CreateManualGroup(ctx, refProduct.Name, memberIDs); err != nil {
			logger.Error("MatcherService: failed to persist auto group %q: %v", refProduct.Name, err)
			continue
		}
		created++
	}

	logger.Info("MatcherService: auto-detection created %d groups at threshold %.0f", created, threshold)
	return created
}

// bestMatch finds the highest-scoring candidate at or above threshold.
// Ties are broken by first-encountered, which is stable across runs because
// the candidate slice comes from a name-ordered query.
func bestMatch(scorer matching.Scorer, name string, candidates []models.PricedProduct, threshold float64) (models.PricedProduct, bool) {
	var best models.PricedProduct
	bestScore := -1.0

	for _, candidate := range candidates {
		score := scorer.Score(name, candidate.Name)
		if score < threshold {
			continue
		}
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}

	return best, bestScore >= 0
}

// GetGroup returns all member products of a named group joined to their
// current prices, cheapest first. Unknown names yield an empty result.
func (s *MatcherService) GetGroup(ctx context.Context, groupName string) []models.PricedProduct {
	sql := `
		SELECT p.id, p.external_id, p.name, p.retailer, p.category, p.format,
		       p.url, p.image_url, pr.price, pr.unit_price, pr.captured_at
		FROM equivalences e
		JOIN products p ON p.id = e.product_id
		LEFT JOIN prices pr ON pr.id = (
			SELECT id FROM prices
			WHERE product_id = p.id
			ORDER BY captured_at DESC
			LIMIT 1
		)
		WHERE e.group_name = ?
		ORDER BY pr.price ASC`

	var rows []models.PricedProduct
	if err := s.DB.WithContext(ctx).Raw(sql, groupName).Scan(&rows).Error; err != nil {
		logger.Error("MatcherService: failed to load group %q: %v", groupName, err)
		return []models.PricedProduct{}
	}
	return rows
}

// GetGroupHistory returns the union of all members' price histories, each row
// tagged with its retailer and product name, oldest first. This is the basis
// for cross-retailer time-series comparison.
func (s *MatcherService) GetGroupHistory(ctx context.Context, groupName string) []models.GroupPricePoint {
	sql := `
		SELECT p.id AS product_id, p.retailer, p.name,
		       pr.price, pr.unit_price, pr.captured_at
		FROM equivalences e
		JOIN products p ON p.id = e.product_id
		JOIN prices pr ON pr.product_id = p.id
		WHERE e.group_name = ?
		ORDER BY pr.captured_at ASC`

	var rows []models.GroupPricePoint
	if err := s.DB.WithContext(ctx).Raw(sql, groupName).Scan(&rows).Error; err != nil {
		logger.Error("MatcherService: failed to load history for group %q: %v", groupName, err)
		return []models.GroupPricePoint{}
	}
	return rows
}

// ListGroupNames returns all distinct group names, sorted
func (s *MatcherService) ListGroupNames(ctx context.Context) []string {
	var names []string
	err := s.DB.WithContext(ctx).Model(&models.Equivalence{}).
		Distinct("group_name").
		Order("group_name ASC").
		Pluck("group_name", &names).Error
	if err != nil {
		logger.Error("MatcherService: failed to list group names: %v", err)
		return []string{}
	}
	return names
}
