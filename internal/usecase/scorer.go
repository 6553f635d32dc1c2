package usecase

import (
	"fmt"
	"math"
	"strings"

	"github.com/stockmatch/backend/internal/domain"
)

// DefaultPropertyMatchThreshold is the similarity a property needs to count as matched
const DefaultPropertyMatchThreshold = 0.8

// neutralOverlap is used when the request carries no properties
const neutralOverlap = 0.5

// Weights balances the three score components. They must sum to 1.
type Weights struct {
	Name       float64 `json:"name" mapstructure:"name"`
	Category   float64 `json:"category" mapstructure:"category"`
	Properties float64 `json:"properties" mapstructure:"properties"`
}

// DefaultWeights returns name 0.4, category 0.2, properties 0.4
func DefaultWeights() Weights {
	return Weights{Name: 0.4, Category: 0.2, Properties: 0.4}
}

// Validate checks that weights are non-negative and sum to 1
func (w Weights) Validate() error {
	if w.Name < 0 || w.Category < 0 || w.Properties < 0 {
		return fmt.Errorf("%w: weights must be non-negative", domain.ErrInvalidConfig)
	}
	if sum := w.Name + w.Category + w.Properties; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("%w: weights must sum to 1, got %.4f", domain.ErrInvalidConfig, sum)
	}
	return nil
}

// ScoreResult is the scorer output for one (request, candidate) pair
type ScoreResult struct {
	Score     float64
	Matched   []string
	Missing   []string
	Reasoning string
}

// CandidateScorer scores a single catalog item against a request
type CandidateScorer interface {
	Score(request *domain.ProductRequest, item *domain.CatalogItem) ScoreResult
}

// MatchScorer computes a weighted score from name similarity, category match and
// property overlap.
type MatchScorer struct {
	normalizer        *ValueNormalizer
	weights           Weights
	propertyThreshold float64
}

// NewMatchScorer creates a scorer. Zero weights fall back to DefaultWeights and a
// negative propertyThreshold to DefaultPropertyMatchThreshold.
func NewMatchScorer(normalizer *ValueNormalizer, weights Weights, propertyThreshold float64) *MatchScorer {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	if propertyThreshold < 0 {
		propertyThreshold = DefaultPropertyMatchThreshold
	}
	return &MatchScorer{
		normalizer:        normalizer,
		weights:           weights,
		propertyThreshold: propertyThreshold,
	}
}

// Score computes the weighted score for item, the matched and missing request
// property names, and a human-readable explanation.
func (s *MatchScorer) Score(request *domain.ProductRequest, item *domain.CatalogItem) ScoreResult {
	nameSimilarity := s.normalizer.Ratio(
		strings.TrimSpace(request.ProductName),
		strings.TrimSpace(item.ProductName),
	)

	categoryMatch := 1.0
	if !strings.EqualFold(strings.TrimSpace(request.Category), strings.TrimSpace(item.Category)) {
		categoryMatch = s.normalizer.Ratio(strings.TrimSpace(request.Category), strings.TrimSpace(item.Category))
	}

	matched := []string{}
	missing := []string{}
	seen := make(map[string]bool, len(request.Properties))
	for _, wanted := range request.Properties {
		key := domain.NormalizeKey(wanted.Name)
		if seen[key] {
			continue
		}
		seen[key] = true

		name := strings.TrimSpace(wanted.Name)
		have, ok := item.Property(wanted.Name)
		if ok && s.normalizer.Similarity(wanted, have, true) >= s.propertyThreshold {
			matched = append(matched, name)
		} else {
			missing = append(missing, name)
		}
	}

	overlap := neutralOverlap
	if len(request.Properties) > 0 {
		overlap = float64(len(matched)) / float64(len(request.Properties))
	}

	score := s.weights.Name*nameSimilarity +
		s.weights.Category*categoryMatch +
		s.weights.Properties*overlap

	return ScoreResult{
		Score:     clamp01(score),
		Matched:   matched,
		Missing:   missing,
		Reasoning: buildReasoning(nameSimilarity, categoryMatch, matched, missing),
	}
}

func buildReasoning(nameSimilarity, categoryMatch float64, matched, missing []string) string {
	parts := []string{
		fmt.Sprintf("name similarity %.2f", nameSimilarity),
		fmt.Sprintf("category match %.2f", categoryMatch),
	}
	if len(matched) > 0 {
		parts = append(parts, "matched: "+strings.Join(matched, ", "))
	}
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	return strings.Join(parts, "; ")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
