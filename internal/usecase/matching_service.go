package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockmatch/backend/internal/domain"
)

// Ranking defaults
const (
	DefaultMinScore                 = 0.5
	DefaultReviewThreshold          = 0.7
	DefaultMaxMatches               = 3
	DefaultAmbiguityMargin          = 0.1
	DefaultMissingPropertyFlagCount = 2
)

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	MinScore                 float64
	ReviewThreshold          float64
	MaxMatches               int
	FuzzyThreshold           float64
	ContinueThreshold        int
	PropertyMatchThreshold   float64
	AmbiguityMargin          float64
	MissingPropertyFlagCount int
	Weights                  Weights
}

// DefaultMatchConfig returns the documented engine defaults
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		MinScore:                 DefaultMinScore,
		ReviewThreshold:          DefaultReviewThreshold,
		MaxMatches:               DefaultMaxMatches,
		FuzzyThreshold:           DefaultFuzzyThreshold,
		ContinueThreshold:        DefaultContinueThreshold,
		PropertyMatchThreshold:   DefaultPropertyMatchThreshold,
		AmbiguityMargin:          DefaultAmbiguityMargin,
		MissingPropertyFlagCount: DefaultMissingPropertyFlagCount,
		Weights:                  DefaultWeights(),
	}
}

// withDefaults fills fields that have no meaningful zero value: counts and
// all-zero weights. Thresholds in [0,1] are taken as given, so zero is a valid
// setting; only negative thresholds fall back to the defaults.
func (c MatchConfig) withDefaults() MatchConfig {
	d := DefaultMatchConfig()
	if c.MinScore < 0 {
		c.MinScore = d.MinScore
	}
	if c.ReviewThreshold < 0 {
		c.ReviewThreshold = d.ReviewThreshold
	}
	if c.FuzzyThreshold < 0 {
		c.FuzzyThreshold = d.FuzzyThreshold
	}
	if c.PropertyMatchThreshold < 0 {
		c.PropertyMatchThreshold = d.PropertyMatchThreshold
	}
	if c.AmbiguityMargin < 0 {
		c.AmbiguityMargin = d.AmbiguityMargin
	}
	if c.MaxMatches <= 0 {
		c.MaxMatches = d.MaxMatches
	}
	if c.ContinueThreshold <= 0 {
		c.ContinueThreshold = d.ContinueThreshold
	}
	if c.MissingPropertyFlagCount <= 0 {
		c.MissingPropertyFlagCount = d.MissingPropertyFlagCount
	}
	if c.Weights == (Weights{}) {
		c.Weights = d.Weights
	}
	return c
}

// MatchingService ranks catalog items for a product request and derives review flags.
// Per request it runs Filtering, Scoring, Sorting and Flagging in that order.
type MatchingService struct {
	catalog  domain.CatalogRepository
	registry *HierarchyRegistry
	filter   *ProgressiveFilter
	scorer   CandidateScorer
	recorder domain.MatchRecorder
	config   MatchConfig
	logger   zerolog.Logger
}

// NewMatchingService wires the filter and scorer around a shared normalizer
func NewMatchingService(
	catalog domain.CatalogRepository,
	registry *HierarchyRegistry,
	normalizer *ValueNormalizer,
	config MatchConfig,
	logger zerolog.Logger,
) *MatchingService {
	config = config.withDefaults()

	return &MatchingService{
		catalog:  catalog,
		registry: registry,
		filter:   NewProgressiveFilter(normalizer, logger),
		scorer:   NewMatchScorer(normalizer, config.Weights, config.PropertyMatchThreshold),
		config:   config,
		logger:   logger,
	}
}

// SetScorer replaces the candidate scorer
func (s *MatchingService) SetScorer(scorer CandidateScorer) {
	s.scorer = scorer
}

// SetRecorder attaches a metrics recorder
func (s *MatchingService) SetRecorder(recorder domain.MatchRecorder) {
	s.recorder = recorder
}

// Config returns the effective configuration
func (s *MatchingService) Config() MatchConfig {
	return s.config
}

// Registry returns the hierarchy registry used for filtering
func (s *MatchingService) Registry() *HierarchyRegistry {
	return s.registry
}

type scoredCandidate struct {
	item   domain.CatalogItem
	result ScoreResult
}

// Match returns the top-ranked inventory matches and review flags for request.
// Empty catalogs, missing hierarchies and weak candidates produce empty matches
// with flags; only a catalog read failure returns an error, wrapping
// domain.ErrCatalogUnavailable. A cancelled or expired ctx returns ctx.Err().
func (s *MatchingService) Match(ctx context.Context, request *domain.ProductRequest) (*domain.MatchResult, error) {
	if request == nil {
		return nil, domain.ErrInvalidRequest
	}
	started := time.Now()

	log := s.logger.With().
		Str("category", request.Category).
		Str("product", request.ProductName).
		Logger()

	// Filtering
	snapshot, err := s.catalog.ItemsInCategory(ctx, request.Category)
	if err != nil {
		if s.recorder != nil {
			s.recorder.ObserveCatalogError()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Error().Err(err).Msg("catalog read failed")
		if errors.Is(err, domain.ErrCatalogUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	hierarchy, registered := s.registry.Hierarchy(request.Category)
	if !registered {
		log.Debug().Msg("no hierarchy registered; filtering by category only")
	}

	filtered := s.filter.Filter(snapshot, request, hierarchy, s.config.FuzzyThreshold, s.config.ContinueThreshold)

	// Scoring
	scored := make([]scoredCandidate, 0, len(filtered.Candidates))
	for i := range filtered.Candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item := filtered.Candidates[i]
		result := s.scorer.Score(request, &item)

		log.Debug().
			Str("item_id", item.ItemID).
			Float64("score", result.Score).
			Strs("matched", result.Matched).
			Strs("missing", result.Missing).
			Msg("scored candidate")

		if result.Score < s.config.MinScore {
			continue
		}
		scored = append(scored, scoredCandidate{item: item, result: result})
	}

	// Sorting
	matches := rankCandidates(scored, s.config.MaxMatches)

	// Flagging
	result := &domain.MatchResult{
		Matches:      matches,
		Flags:        reviewFlags(matches, s.config),
		AppliedDepth: filtered.AppliedDepth,
	}

	log.Debug().
		Int("candidates", len(filtered.Candidates)).
		Int("applied_depth", filtered.AppliedDepth).
		Int("matches", len(matches)).
		Int("flags", len(result.Flags)).
		Msg("match complete")

	if s.recorder != nil {
		s.recorder.ObserveMatch(result, time.Since(started))
	}

	return result, nil
}

// rankCandidates sorts descending by score, keeping filter order on ties,
// truncates to maxMatches and assigns contiguous ranks from 1.
func rankCandidates(scored []scoredCandidate, maxMatches int) []domain.InventoryMatch {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].result.Score > scored[j].result.Score
	})
	if len(scored) > maxMatches {
		scored = scored[:maxMatches]
	}

	matches := make([]domain.InventoryMatch, 0, len(scored))
	for i, c := range scored {
		matches = append(matches, domain.InventoryMatch{
			ItemID:            c.item.ItemID,
			Description:       c.item.Description,
			Score:             c.result.Score,
			Rank:              i + 1,
			MatchedProperties: c.result.Matched,
			MissingProperties: c.result.Missing,
			Reasoning:         c.result.Reasoning,
		})
	}
	return matches
}

// reviewFlags evaluates the flag rules against the final ranked list
func reviewFlags(matches []domain.InventoryMatch, config MatchConfig) []domain.ReviewFlag {
	flags := []domain.ReviewFlag{}

	if len(matches) == 0 {
		return append(flags, domain.ReviewFlag{
			IssueType:     domain.IssueInsufficientData,
			MatchCount:    0,
			TopConfidence: nil,
			Reason:        "no inventory matches above minimum threshold",
			ActionNeeded:  "Request more product details or add the item to inventory",
		})
	}

	top := matches[0]
	topScore := top.Score

	switch {
	case top.Score < config.ReviewThreshold:
		flags = append(flags, domain.ReviewFlag{
			IssueType:     domain.IssueLowConfidence,
			MatchCount:    len(matches),
			TopConfidence: &topScore,
			Reason: fmt.Sprintf("top match %s scored %.2f, below review threshold %.2f",
				top.ItemID, top.Score, config.ReviewThreshold),
			ActionNeeded: "Verify the suggested match manually",
		})

	case len(matches) >= 2 && top.Score-matches[1].Score < config.AmbiguityMargin:
		second := matches[1]
		flags = append(flags, domain.ReviewFlag{
			IssueType:     domain.IssueAmbiguousMatch,
			MatchCount:    len(matches),
			TopConfidence: &topScore,
			Reason: fmt.Sprintf("top matches %s (%.2f) and %s (%.2f) are within %.2f of each other",
				top.ItemID, top.Score, second.ItemID, second.Score, config.AmbiguityMargin),
			ActionNeeded: fmt.Sprintf("Choose between %s and %s", top.ItemID, second.ItemID),
		})
	}

	if len(top.MissingProperties) >= config.MissingPropertyFlagCount {
		flags = append(flags, domain.ReviewFlag{
			IssueType:     domain.IssueInsufficientData,
			MatchCount:    len(matches),
			TopConfidence: &topScore,
			Reason: fmt.Sprintf("top match %s is missing properties: %s",
				top.ItemID, strings.Join(top.MissingProperties, ", ")),
			ActionNeeded: "Confirm the missing properties with the requester",
		})
	}

	return flags
}
