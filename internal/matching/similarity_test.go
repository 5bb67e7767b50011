package matching

import (
	"testing"
)

func TestTokenSortScorerOrderIndependence(t *testing.T) {
	scorer := TokenSortScorer{}

	score := scorer.Score("Cola Zero 2L", "2L Cola Zero")
	if score != 100 {
		t.Errorf("score = %.2f, want 100 for reordered tokens", score)
	}
}

func TestTokenSortScorerSymmetry(t *testing.T) {
	scorer := TokenSortScorer{}

	ab := scorer.Score("Leche entera Hacendado 1L", "Leche entera Carrefour 1L")
	ba := scorer.Score("Leche entera Carrefour 1L", "Leche entera Hacendado 1L")
	if ab != ba {
		t.Errorf("score is not symmetric: %.2f vs %.2f", ab, ba)
	}
}

func TestTokenSortScorerCaseInsensitive(t *testing.T) {
	scorer := TokenSortScorer{}

	if score := scorer.Score("COCA-COLA ZERO", "coca-cola zero"); score != 100 {
		t.Errorf("score = %.2f, want 100 for case-only difference", score)
	}
}

func TestTokenSortScorerRange(t *testing.T) {
	scorer := TokenSortScorer{}

	cases := [][2]string{
		{"Leche entera Hacendado 1L", "Leche entera Carrefour 1L"},
		{"Aceite de oliva virgen extra", "Detergente liquido 3L"},
		{"Pan", "Pan de molde integral 500g"},
	}
	for _, c := range cases {
		score := scorer.Score(c[0], c[1])
		if score < 0 || score > 100 {
			t.Errorf("Score(%q, %q) = %.2f, out of [0,100]", c[0], c[1], score)
		}
	}
}

func TestTokenSortScorerSimilarBeatsDissimilar(t *testing.T) {
	scorer := TokenSortScorer{}

	similar := scorer.Score("Leche entera 1L", "Leche entera Hacendado 1L")
	dissimilar := scorer.Score("Leche entera 1L", "Detergente liquido 3L")
	if similar <= dissimilar {
		t.Errorf("similar pair scored %.2f, dissimilar %.2f; expected similar > dissimilar", similar, dissimilar)
	}
}

func TestTokenSortScorerEmptyInput(t *testing.T) {
	scorer := TokenSortScorer{}

	if score := scorer.Score("", "Leche entera"); score != 0 {
		t.Errorf("score = %.2f, want 0 for empty query", score)
	}
	if score := scorer.Score("   ", "Leche entera"); score != 0 {
		t.Errorf("score = %.2f, want 0 for whitespace-only query", score)
	}
}

func TestCoverageScorer(t *testing.T) {
	scorer := CoverageScorer{}

	if score := scorer.Score("leche entera", "Leche entera Hacendado 1L"); score != 100 {
		t.Errorf("score = %.2f, want 100 when all tokens match", score)
	}
	if score := scorer.Score("leche almendras", "Leche entera Hacendado 1L"); score != 50 {
		t.Errorf("score = %.2f, want 50 when half the tokens match", score)
	}
	if score := scorer.Score("", "Leche entera"); score != 0 {
		t.Errorf("score = %.2f, want 0 for empty query", score)
	}
}

func TestNewScorerSelection(t *testing.T) {
	if got := NewScorer(KindCoverage).Kind(); got != KindCoverage {
		t.Errorf("NewScorer(coverage).Kind() = %s", got)
	}
	if got := NewScorer(KindTokenSort).Kind(); got != KindTokenSort {
		t.Errorf("NewScorer(token_sort).Kind() = %s", got)
	}
	// Unknown kinds fall back to the real measure, never the weak one
	if got := NewScorer("").Kind(); got != KindTokenSort {
		t.Errorf("NewScorer(\"\").Kind() = %s", got)
	}
}
