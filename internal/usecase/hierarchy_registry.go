package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/stockmatch/backend/internal/domain"
)

// HierarchyRegistry resolves per-category property importance orders.
// Raw configuration is captured at construction; each category is parsed on
// first lookup and cached under its normalized name.
type HierarchyRegistry struct {
	raw    map[string]rawHierarchy
	logger zerolog.Logger

	mu     sync.RWMutex
	parsed map[string]domain.PropertyHierarchy
}

type rawHierarchy struct {
	category   string
	properties []string
}

// NewHierarchyRegistry creates a registry over a raw category -> property names mapping
func NewHierarchyRegistry(raw map[string][]string, logger zerolog.Logger) *HierarchyRegistry {
	r := &HierarchyRegistry{
		raw:    make(map[string]rawHierarchy, len(raw)),
		logger: logger,
		parsed: make(map[string]domain.PropertyHierarchy),
	}

	// Iterate in sorted order so duplicate normalized names resolve deterministically
	categories := make([]string, 0, len(raw))
	for category := range raw {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		key := domain.NormalizeKey(category)
		if key == "" {
			continue
		}
		if existing, ok := r.raw[key]; ok {
			logger.Warn().
				Str("category", category).
				Str("kept", existing.category).
				Msg("duplicate hierarchy category ignored")
			continue
		}
		r.raw[key] = rawHierarchy{category: strings.TrimSpace(category), properties: raw[category]}
	}

	return r
}

// LoadHierarchyRegistry reads the raw mapping from source once and wraps it in a registry
func LoadHierarchyRegistry(ctx context.Context, source domain.HierarchySource, logger zerolog.Logger) (*HierarchyRegistry, error) {
	raw, err := source.LoadHierarchies(ctx)
	if err != nil {
		return nil, fmt.Errorf("load hierarchies: %w", err)
	}
	return NewHierarchyRegistry(raw, logger), nil
}

// Hierarchy returns the parsed hierarchy for category. The boolean is false when
// no hierarchy is registered; the returned hierarchy then has an empty order.
func (r *HierarchyRegistry) Hierarchy(category string) (domain.PropertyHierarchy, bool) {
	key := domain.NormalizeKey(category)
	if r == nil {
		return domain.PropertyHierarchy{Category: strings.TrimSpace(category)}, false
	}

	raw, registered := r.raw[key]
	if !registered {
		return domain.PropertyHierarchy{Category: strings.TrimSpace(category)}, false
	}

	r.mu.RLock()
	h, ok := r.parsed[key]
	r.mu.RUnlock()
	if !ok {
		r.mu.Lock()
		if h, ok = r.parsed[key]; !ok {
			h = r.parse(raw)
			r.parsed[key] = h
		}
		r.mu.Unlock()
	}

	return domain.PropertyHierarchy{
		Category:      h.Category,
		PropertyOrder: append([]string(nil), h.PropertyOrder...),
	}, true
}

// OrderFor returns the ordered property names for category, or an empty slice
func (r *HierarchyRegistry) OrderFor(category string) []string {
	h, _ := r.Hierarchy(category)
	if h.PropertyOrder == nil {
		return []string{}
	}
	return h.PropertyOrder
}

// RankOf returns the importance index of propertyName within category, or domain.Unranked
func (r *HierarchyRegistry) RankOf(category, propertyName string) int {
	h, _ := r.Hierarchy(category)
	return h.RankOf(propertyName)
}

// Categories lists registered category names in sorted order
func (r *HierarchyRegistry) Categories() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.raw))
	for _, raw := range r.raw {
		out = append(out, raw.category)
	}
	sort.Strings(out)
	return out
}

// parse validates one raw entry; malformed entries degrade to an empty order
func (r *HierarchyRegistry) parse(raw rawHierarchy) domain.PropertyHierarchy {
	h := domain.PropertyHierarchy{Category: raw.category, PropertyOrder: []string{}}

	if raw.properties == nil {
		r.logger.Warn().
			Err(domain.ErrHierarchyMalformed).
			Str("category", raw.category).
			Msg("hierarchy entry is not a list of property names; using category-only filtering")
		return h
	}

	seen := make(map[string]bool, len(raw.properties))
	order := make([]string, 0, len(raw.properties))
	for i, name := range raw.properties {
		key := domain.NormalizeKey(name)
		if key == "" {
			r.logger.Warn().
				Err(domain.ErrHierarchyMalformed).
				Str("category", raw.category).
				Int("position", i).
				Msg("blank property name in hierarchy; using category-only filtering")
			return h
		}
		if seen[key] {
			r.logger.Warn().
				Err(domain.ErrHierarchyMalformed).
				Str("category", raw.category).
				Str("property", name).
				Msg("duplicate property in hierarchy; using category-only filtering")
			return h
		}
		seen[key] = true
		order = append(order, key)
	}

	h.PropertyOrder = order
	return h
}
