/**
 * @description
 * Similarity scoring strategies for cross-retailer product matching.
 * Two implementations are selected at startup and never mixed mid-run:
 * a token-sort edit-distance ratio (order-independent, the real measure)
 * and a naive token-coverage fallback.
 *
 * @dependencies
 * - github.com/xrash/smetrics: Wagner-Fischer edit distance
 */

package matching

import (
	"sort"
	"strings"

	"github.com/xrash/smetrics"
)

// Scorer kinds, used for startup strategy selection
const (
	KindTokenSort = "token_sort"
	KindCoverage  = "coverage"
)

// Scorer assigns a similarity score in [0,100] to a pair of product names.
type Scorer interface {
	// Score compares query text against a candidate name. Higher is more similar.
	Score(query, candidate string) float64
	// Kind identifies the scoring strategy
	Kind() string
}

// NewScorer returns the scorer for the configured kind, defaulting to token-sort.
func NewScorer(kind string) Scorer {
	if kind == KindCoverage {
		return CoverageScorer{}
	}
	return TokenSortScorer{}
}

// TokenSortScorer scores by edit distance over whitespace tokens sorted
// alphabetically, so "Zero Cola 2L" and "2L Cola Zero" score 100.
type TokenSortScorer struct{}

// Kind identifies the scoring strategy
func (TokenSortScorer) Kind() string { return KindTokenSort }

// Score returns the indel-distance ratio of the token-sorted forms, in [0,100]
func (TokenSortScorer) Score(query, candidate string) float64 {
	a := tokenSort(query)
	b := tokenSort(candidate)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}

	// Insert/delete cost 1, substitution cost 2: a substitution counts as
	// one deletion plus one insertion, which keeps the ratio in [0,100].
	dist := smetrics.WagnerFischer(a, b, 1, 1, 2)
	total := len(a) + len(b)
	return (1 - float64(dist)/float64(total)) * 100
}

// tokenSort lowercases, splits on whitespace, sorts the tokens, and rejoins
func tokenSort(s string) string {
	tokens := strings.Fields(strings.ToLower(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// CoverageScorer is the degraded fallback: the fraction of query tokens found
// as substrings of the candidate name. It is good enough for human-reviewed
// suggestions but too weak for unattended group creation.
type CoverageScorer struct{}

// Kind identifies the scoring strategy
func (CoverageScorer) Kind() string { return KindCoverage }

// Score returns (matched query tokens / total query tokens) * 100
func (CoverageScorer) Score(query, candidate string) float64 {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return 0
	}

	name := strings.ToLower(candidate)
	matched := 0
	for _, token := range tokens {
		if strings.Contains(name, token) {
			matched++
		}
	}

	return float64(matched) / float64(len(tokens)) * 100
}
