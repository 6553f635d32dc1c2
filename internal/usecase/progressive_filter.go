package usecase

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/stockmatch/backend/internal/domain"
)

// Filter defaults
const (
	DefaultFuzzyThreshold    = 0.85
	DefaultContinueThreshold = 10
)

// FilterAction records what happened at one hierarchy level
type FilterAction string

const (
	// FilterApplied means the level narrowed the working set
	FilterApplied FilterAction = "applied"
	// FilterSkippedAbsent means the request does not carry the property
	FilterSkippedAbsent FilterAction = "skipped-absent"
	// FilterSkippedNoDiscrimination means no candidate matched a large working set
	FilterSkippedNoDiscrimination FilterAction = "skipped-no-discrimination"
	// FilterStopped means no candidate matched a small working set; iteration ended
	FilterStopped FilterAction = "stopped"
)

// FilterStep traces one hierarchy level
type FilterStep struct {
	Property string       `json:"property"`
	Action   FilterAction `json:"action"`
	Before   int          `json:"before"`
	After    int          `json:"after"`
}

// FilterOutcome is the result of progressive filtering
type FilterOutcome struct {
	Candidates   []domain.CatalogItem
	AppliedDepth int
	Steps        []FilterStep
}

// ProgressiveFilter narrows a catalog snapshot by category and then by each
// hierarchy property in importance order. All work is in memory.
type ProgressiveFilter struct {
	normalizer *ValueNormalizer
	logger     zerolog.Logger
}

// NewProgressiveFilter creates a filter that compares values through normalizer
func NewProgressiveFilter(normalizer *ValueNormalizer, logger zerolog.Logger) *ProgressiveFilter {
	return &ProgressiveFilter{
		normalizer: normalizer,
		logger:     logger,
	}
}

// Filter returns the candidates left after category and hierarchy narrowing,
// with the number of hierarchy levels that actually narrowed the set.
// A zero fuzzyThreshold accepts any value; a negative one uses the default.
func (f *ProgressiveFilter) Filter(
	snapshot []domain.CatalogItem,
	request *domain.ProductRequest,
	hierarchy domain.PropertyHierarchy,
	fuzzyThreshold float64,
	continueThreshold int,
) FilterOutcome {
	if fuzzyThreshold < 0 {
		fuzzyThreshold = DefaultFuzzyThreshold
	}
	if continueThreshold <= 0 {
		continueThreshold = DefaultContinueThreshold
	}

	working := make([]domain.CatalogItem, 0, len(snapshot))
	for _, item := range snapshot {
		if strings.EqualFold(strings.TrimSpace(item.Category), strings.TrimSpace(request.Category)) {
			working = append(working, item)
		}
	}
	if len(working) == 0 {
		return FilterOutcome{Candidates: []domain.CatalogItem{}}
	}

	outcome := FilterOutcome{}

	for _, propertyName := range hierarchy.PropertyOrder {
		step := FilterStep{Property: propertyName, Before: len(working)}

		requested, ok := request.Property(propertyName)
		if !ok {
			step.Action = FilterSkippedAbsent
			step.After = len(working)
			outcome.Steps = append(outcome.Steps, step)
			continue
		}

		target := f.normalizer.Normalize(propertyName, requested.Value)
		candidates := f.narrow(working, propertyName, target, fuzzyThreshold)

		switch {
		case len(candidates) > 0:
			working = candidates
			outcome.AppliedDepth++
			step.Action = FilterApplied
			step.After = len(working)
			outcome.Steps = append(outcome.Steps, step)

		case len(working) < continueThreshold:
			step.Action = FilterStopped
			step.After = len(working)
			outcome.Steps = append(outcome.Steps, step)
			f.logStep(request, step)
			outcome.Candidates = working
			return outcome

		default:
			step.Action = FilterSkippedNoDiscrimination
			step.After = len(working)
			outcome.Steps = append(outcome.Steps, step)
		}

		f.logStep(request, step)
	}

	outcome.Candidates = working
	return outcome
}

// narrow keeps the items whose first same-named property matches target
func (f *ProgressiveFilter) narrow(working []domain.CatalogItem, propertyName, target string, fuzzyThreshold float64) []domain.CatalogItem {
	var candidates []domain.CatalogItem
	for _, item := range working {
		prop, ok := item.Property(propertyName)
		if !ok {
			continue
		}
		value := f.normalizer.Normalize(propertyName, prop.Value)
		if strings.EqualFold(value, target) || f.normalizer.Ratio(value, target) >= fuzzyThreshold {
			candidates = append(candidates, item)
		}
	}
	return candidates
}

func (f *ProgressiveFilter) logStep(request *domain.ProductRequest, step FilterStep) {
	f.logger.Debug().
		Str("category", request.Category).
		Str("property", step.Property).
		Str("action", string(step.Action)).
		Int("before", step.Before).
		Int("after", step.After).
		Msg("filter level")
}
