package usecase

import (
	"sort"
	"strings"

	"github.com/stockmatch/backend/internal/domain"
)

// DefaultSynonymCutoff is the minimum ratio for snapping a value onto a synonym key
const DefaultSynonymCutoff = 0.8

// ValueNormalizer canonicalizes property values and compares them.
// It is read-only after construction and safe for concurrent use.
type ValueNormalizer struct {
	synonyms   map[string]map[string]string
	keys       map[string][]string
	similarity Similarity
	cutoff     float64
}

// NewValueNormalizer builds a normalizer over the given synonym tables.
// Property names and raw values are lower-cased; keys are kept sorted so that
// fuzzy lookups break ties the same way on every run. A negative cutoff uses
// DefaultSynonymCutoff.
func NewValueNormalizer(synonyms map[string]map[string]string, similarity Similarity, cutoff float64) *ValueNormalizer {
	if similarity == nil {
		similarity = IndelRatio
	}
	if cutoff < 0 {
		cutoff = DefaultSynonymCutoff
	}

	n := &ValueNormalizer{
		synonyms:   make(map[string]map[string]string, len(synonyms)),
		keys:       make(map[string][]string, len(synonyms)),
		similarity: similarity,
		cutoff:     cutoff,
	}

	for prop, table := range synonyms {
		propKey := domain.NormalizeKey(prop)
		if propKey == "" {
			continue
		}
		dst, ok := n.synonyms[propKey]
		if !ok {
			dst = make(map[string]string, len(table))
			n.synonyms[propKey] = dst
		}
		for raw, canonical := range table {
			rawKey := domain.NormalizeKey(raw)
			if rawKey == "" {
				continue
			}
			dst[rawKey] = strings.TrimSpace(canonical)
		}
	}

	for prop, table := range n.synonyms {
		keys := make([]string, 0, len(table))
		for k := range table {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		n.keys[prop] = keys
	}

	return n
}

// Normalize maps rawValue to its canonical form for the named property.
// Resolution order: exact synonym hit, best fuzzy synonym key at or above the
// cutoff, then the trimmed input unchanged.
func (n *ValueNormalizer) Normalize(propertyName, rawValue string) string {
	trimmed := strings.TrimSpace(rawValue)

	table, ok := n.synonyms[domain.NormalizeKey(propertyName)]
	if !ok || len(table) == 0 {
		return trimmed
	}

	lookup := strings.ToLower(trimmed)
	if canonical, ok := table[lookup]; ok {
		return canonical
	}

	bestKey := ""
	bestScore := -1.0
	for _, key := range n.keys[domain.NormalizeKey(propertyName)] {
		score := n.similarity.Ratio(lookup, key)
		if score > bestScore {
			bestScore = score
			bestKey = key
		}
	}

	if bestKey != "" && bestScore >= n.cutoff {
		return table[bestKey]
	}

	return trimmed
}

// Similarity compares two properties. Properties with different names never match.
func (n *ValueNormalizer) Similarity(a, b domain.Property, useNormalization bool) float64 {
	if !strings.EqualFold(strings.TrimSpace(a.Name), strings.TrimSpace(b.Name)) {
		return 0.0
	}

	va := strings.TrimSpace(a.Value)
	vb := strings.TrimSpace(b.Value)
	if useNormalization {
		va = n.Normalize(a.Name, a.Value)
		vb = n.Normalize(b.Name, b.Value)
	}

	return n.ValueRatio(va, vb)
}

// ValueRatio returns 1.0 on case-insensitive equality, else the character ratio
func (n *ValueNormalizer) ValueRatio(a, b string) float64 {
	if strings.EqualFold(a, b) {
		return 1.0
	}
	return n.similarity.Ratio(a, b)
}

// Ratio exposes the underlying string similarity primitive
func (n *ValueNormalizer) Ratio(a, b string) float64 {
	return n.similarity.Ratio(a, b)
}

// HasTable reports whether a synonym table exists for the property
func (n *ValueNormalizer) HasTable(propertyName string) bool {
	_, ok := n.synonyms[domain.NormalizeKey(propertyName)]
	return ok
}
