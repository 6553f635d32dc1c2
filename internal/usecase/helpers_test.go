package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/stockmatch/backend/internal/domain"
)

func prop(name, value string) domain.Property {
	return domain.Property{Name: name, Value: value, Confidence: 1.0}
}

func item(id, category, name string, props ...domain.Property) domain.CatalogItem {
	return domain.CatalogItem{
		ItemID:      id,
		Category:    category,
		ProductName: name,
		Description: name + " (" + id + ")",
		Properties:  props,
	}
}

func itemIDs(items []domain.CatalogItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ItemID)
	}
	return ids
}

func newTestNormalizer() *ValueNormalizer {
	return NewValueNormalizer(DefaultSynonyms(), IndelRatio, DefaultSynonymCutoff)
}

// mockCatalog is a mock implementation of domain.CatalogRepository
type mockCatalog struct {
	items []domain.CatalogItem
	err   error

	mu    sync.Mutex
	calls []string
}

func (m *mockCatalog) ItemsInCategory(ctx context.Context, category string) ([]domain.CatalogItem, error) {
	m.mu.Lock()
	m.calls = append(m.calls, category)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

// stubScorer returns fixed results keyed by item id
type stubScorer struct {
	scores  map[string]float64
	missing map[string][]string
}

func (s *stubScorer) Score(request *domain.ProductRequest, it *domain.CatalogItem) ScoreResult {
	return ScoreResult{
		Score:     s.scores[it.ItemID],
		Matched:   []string{},
		Missing:   append([]string{}, s.missing[it.ItemID]...),
		Reasoning: "stub",
	}
}

// mockRecorder counts observations
type mockRecorder struct {
	mu            sync.Mutex
	matches       int
	catalogErrors int
}

func (m *mockRecorder) ObserveMatch(result *domain.MatchResult, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches++
}

func (m *mockRecorder) ObserveCatalogError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalogErrors++
}
