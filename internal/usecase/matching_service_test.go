package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockmatch/backend/internal/domain"
)

func newTestService(catalog domain.CatalogRepository, hierarchies map[string][]string) *MatchingService {
	registry := NewHierarchyRegistry(hierarchies, zerolog.Nop())
	return NewMatchingService(catalog, registry, newTestNormalizer(), DefaultMatchConfig(), zerolog.Nop())
}

func fastenerCatalog() *mockCatalog {
	return &mockCatalog{items: []domain.CatalogItem{
		item("N1", "Nuts", "Hex Nut M8", prop("size", "M8"), prop("material", "Stainless Steel"), prop("finish", "plain")),
		item("N2", "Nuts", "Hex Nut M8", prop("size", "M8"), prop("material", "Carbon Steel"), prop("finish", "zinc plated")),
		item("N3", "Nuts", "Wing Nut M6", prop("size", "M6"), prop("material", "stainless steel")),
		item("B1", "Bolts", "Hex Bolt M8", prop("size", "M8"), prop("material", "stainless steel")),
	}}
}

func TestMatchingService_Match(t *testing.T) {
	catalog := fastenerCatalog()
	service := newTestService(catalog, map[string][]string{
		"Nuts": {"size", "material", "finish"},
	})

	request := &domain.ProductRequest{
		Category:    "Nuts",
		ProductName: "Hex Nut M8",
		Properties:  []domain.Property{prop("size", "M8"), prop("material", "ss")},
	}

	result, err := service.Match(context.Background(), request)
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	top := result.Matches[0]
	assert.Equal(t, "N1", top.ItemID)
	assert.Equal(t, 1, top.Rank)
	assert.InDelta(t, 1.0, top.Score, 1e-9)
	assert.Equal(t, []string{"size", "material"}, top.MatchedProperties)
	assert.Empty(t, top.MissingProperties)
	assert.Empty(t, result.Flags)
	assert.Equal(t, 2, result.AppliedDepth)
	assert.Equal(t, []string{"Nuts"}, catalog.calls)
}

func TestMatchingService_LowConfidence(t *testing.T) {
	catalog := &mockCatalog{items: []domain.CatalogItem{item("N1", "Nuts", "Nut")}}
	service := newTestService(catalog, nil)
	service.SetScorer(&stubScorer{scores: map[string]float64{"N1": 0.55}})

	result, err := service.Match(context.Background(), &domain.ProductRequest{Category: "Nuts"})
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	assert.Equal(t, 1, result.Matches[0].Rank)
	require.Len(t, result.Flags, 1)
	flag := result.Flags[0]
	assert.Equal(t, domain.IssueLowConfidence, flag.IssueType)
	assert.Equal(t, 1, flag.MatchCount)
	require.NotNil(t, flag.TopConfidence)
	assert.InDelta(t, 0.55, *flag.TopConfidence, 1e-9)
}

func TestMatchingService_AmbiguousMatch(t *testing.T) {
	catalog := &mockCatalog{items: []domain.CatalogItem{
		item("N2", "Nuts", "Nut"),
		item("N1", "Nuts", "Nut"),
	}}
	service := newTestService(catalog, nil)
	service.SetScorer(&stubScorer{scores: map[string]float64{"N1": 0.82, "N2": 0.78}})

	result, err := service.Match(context.Background(), &domain.ProductRequest{Category: "Nuts"})
	require.NoError(t, err)

	require.Len(t, result.Matches, 2)
	assert.Equal(t, "N1", result.Matches[0].ItemID)
	assert.Equal(t, 1, result.Matches[0].Rank)
	assert.Equal(t, "N2", result.Matches[1].ItemID)
	assert.Equal(t, 2, result.Matches[1].Rank)

	require.Len(t, result.Flags, 1)
	assert.Equal(t, domain.IssueAmbiguousMatch, result.Flags[0].IssueType)
	assert.Contains(t, result.Flags[0].Reason, "N1")
	assert.Contains(t, result.Flags[0].Reason, "N2")
}

func TestMatchingService_NoMatches(t *testing.T) {
	tests := []struct {
		name    string
		catalog *mockCatalog
		scores  map[string]float64
	}{
		{
			name:    "empty catalog",
			catalog: &mockCatalog{},
		},
		{
			name:    "category absent",
			catalog: &mockCatalog{items: []domain.CatalogItem{item("X1", "Nails", "Nail")}},
			scores:  map[string]float64{"X1": 0.99},
		},
		{
			name:    "all below minimum",
			catalog: &mockCatalog{items: []domain.CatalogItem{item("N1", "Nuts", "Nut"), item("N2", "Nuts", "Nut")}},
			scores:  map[string]float64{"N1": 0.49, "N2": 0.1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestService(tt.catalog, nil)
			service.SetScorer(&stubScorer{scores: tt.scores})

			result, err := service.Match(context.Background(), &domain.ProductRequest{Category: "Nuts"})
			require.NoError(t, err)

			assert.NotNil(t, result.Matches)
			assert.Empty(t, result.Matches)
			require.Len(t, result.Flags, 1)
			assert.Equal(t, domain.IssueInsufficientData, result.Flags[0].IssueType)
			assert.Equal(t, 0, result.Flags[0].MatchCount)
			assert.Nil(t, result.Flags[0].TopConfidence)
		})
	}
}

func TestMatchingService_MissingProperties(t *testing.T) {
	catalog := &mockCatalog{items: []domain.CatalogItem{item("N1", "Nuts", "Nut")}}

	t.Run("confident top match", func(t *testing.T) {
		service := newTestService(catalog, nil)
		service.SetScorer(&stubScorer{
			scores:  map[string]float64{"N1": 0.9},
			missing: map[string][]string{"N1": {"grade", "finish"}},
		})

		result, err := service.Match(context.Background(), &domain.ProductRequest{Category: "Nuts"})
		require.NoError(t, err)

		require.Len(t, result.Flags, 1)
		assert.Equal(t, domain.IssueInsufficientData, result.Flags[0].IssueType)
		assert.Contains(t, result.Flags[0].Reason, "grade, finish")
		require.NotNil(t, result.Flags[0].TopConfidence)
	})

	t.Run("co-occurs with low confidence", func(t *testing.T) {
		service := newTestService(catalog, nil)
		service.SetScorer(&stubScorer{
			scores:  map[string]float64{"N1": 0.6},
			missing: map[string][]string{"N1": {"grade", "finish", "size"}},
		})

		result, err := service.Match(context.Background(), &domain.ProductRequest{Category: "Nuts"})
		require.NoError(t, err)

		require.Len(t, result.Flags, 2)
		assert.True(t, result.HasFlag(domain.IssueLowConfidence))
		assert.True(t, result.HasFlag(domain.IssueInsufficientData))
	})

	t.Run("single missing property is not flagged", func(t *testing.T) {
		service := newTestService(catalog, nil)
		service.SetScorer(&stubScorer{
			scores:  map[string]float64{"N1": 0.9},
			missing: map[string][]string{"N1": {"grade"}},
		})

		result, err := service.Match(context.Background(), &domain.ProductRequest{Category: "Nuts"})
		require.NoError(t, err)
		assert.Empty(t, result.Flags)
	})
}

func TestMatchingService_RanksAndTruncates(t *testing.T) {
	catalog := &mockCatalog{}
	scores := map[string]float64{}
	for i, s := range []float64{0.6, 0.95, 0.7, 0.95, 0.8} {
		id := fmt.Sprintf("N%d", i)
		catalog.items = append(catalog.items, item(id, "Nuts", "Nut"))
		scores[id] = s
	}
	service := newTestService(catalog, nil)
	service.SetScorer(&stubScorer{scores: scores})

	result, err := service.Match(context.Background(), &domain.ProductRequest{Category: "Nuts"})
	require.NoError(t, err)

	require.Len(t, result.Matches, DefaultMaxMatches)
	// ties keep catalog order
	assert.Equal(t, "N1", result.Matches[0].ItemID)
	assert.Equal(t, "N3", result.Matches[1].ItemID)
	assert.Equal(t, "N4", result.Matches[2].ItemID)
	for i, m := range result.Matches {
		assert.Equal(t, i+1, m.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, result.Matches[i-1].Score, m.Score)
		}
	}
	assert.True(t, result.HasFlag(domain.IssueAmbiguousMatch))
}

func TestMatchingService_CategoryBoundary(t *testing.T) {
	// storage that ignores the category argument
	catalog := &mockCatalog{items: []domain.CatalogItem{
		item("X1", "Nails", "Hex Nut M8", prop("size", "M8")),
		item("N1", "Nuts", "Hex Nut M10", prop("size", "M10")),
	}}
	service := newTestService(catalog, map[string][]string{"Nuts": {"size"}})

	result, err := service.Match(context.Background(), &domain.ProductRequest{
		Category:    "Nuts",
		ProductName: "Hex Nut M8",
		Properties:  []domain.Property{prop("size", "M8")},
	})
	require.NoError(t, err)

	for _, m := range result.Matches {
		assert.NotEqual(t, "X1", m.ItemID)
	}
}

func TestMatchingService_Deterministic(t *testing.T) {
	service := newTestService(fastenerCatalog(), map[string][]string{"Nuts": {"size", "material"}})
	request := &domain.ProductRequest{
		Category:    "Nuts",
		ProductName: "hex nut",
		Properties:  []domain.Property{prop("size", "M8")},
	}

	first, err := service.Match(context.Background(), request)
	require.NoError(t, err)
	second, err := service.Match(context.Background(), request)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestMatchingService_CatalogErrors(t *testing.T) {
	t.Run("plain error is wrapped", func(t *testing.T) {
		boom := errors.New("connection refused")
		recorder := &mockRecorder{}
		service := newTestService(&mockCatalog{err: boom}, nil)
		service.SetRecorder(recorder)

		result, err := service.Match(context.Background(), &domain.ProductRequest{Category: "Nuts"})

		assert.Nil(t, result)
		assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
		assert.Contains(t, err.Error(), "connection refused")
		assert.Equal(t, 1, recorder.catalogErrors)
		assert.Equal(t, 0, recorder.matches)
	})

	t.Run("already wrapped error passes through", func(t *testing.T) {
		wrapped := fmt.Errorf("%w: timeout", domain.ErrCatalogUnavailable)
		service := newTestService(&mockCatalog{err: wrapped}, nil)

		_, err := service.Match(context.Background(), &domain.ProductRequest{Category: "Nuts"})

		assert.Equal(t, wrapped, err)
	})
}

func TestMatchingService_InvalidRequest(t *testing.T) {
	service := newTestService(&mockCatalog{}, nil)

	_, err := service.Match(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestMatchingService_CancelledContext(t *testing.T) {
	service := newTestService(fastenerCatalog(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.Match(ctx, &domain.ProductRequest{Category: "Nuts"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMatchingService_CancelledDuringCatalogRead(t *testing.T) {
	catalog := &mockCatalog{err: fmt.Errorf("%w: context canceled", domain.ErrCatalogUnavailable)}
	service := newTestService(catalog, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.Match(ctx, &domain.ProductRequest{Category: "Nuts"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestMatchingService_RecordsMatches(t *testing.T) {
	recorder := &mockRecorder{}
	service := newTestService(fastenerCatalog(), nil)
	service.SetRecorder(recorder)

	_, err := service.Match(context.Background(), &domain.ProductRequest{Category: "Nuts", ProductName: "Hex Nut M8"})
	require.NoError(t, err)

	assert.Equal(t, 1, recorder.matches)
}

func TestMatchConfig_WithDefaults(t *testing.T) {
	got := MatchConfig{MinScore: 0.6}.withDefaults()

	assert.Equal(t, 0.6, got.MinScore)
	assert.Equal(t, DefaultMaxMatches, got.MaxMatches)
	assert.Equal(t, DefaultContinueThreshold, got.ContinueThreshold)
	assert.Equal(t, DefaultMissingPropertyFlagCount, got.MissingPropertyFlagCount)
	assert.Equal(t, DefaultWeights(), got.Weights)

	// zero thresholds are settings, not gaps
	assert.Zero(t, got.ReviewThreshold)
	assert.Zero(t, got.FuzzyThreshold)
	assert.Zero(t, got.AmbiguityMargin)

	negative := MatchConfig{MinScore: -1, ReviewThreshold: -1, AmbiguityMargin: -1}.withDefaults()
	assert.Equal(t, DefaultMinScore, negative.MinScore)
	assert.Equal(t, DefaultReviewThreshold, negative.ReviewThreshold)
	assert.Equal(t, DefaultAmbiguityMargin, negative.AmbiguityMargin)
}

func TestMatchingService_ZeroThresholdsAreHonoured(t *testing.T) {
	catalog := &mockCatalog{items: []domain.CatalogItem{
		item("N1", "Nuts", "Hex Nut M8"),
		item("N2", "Nuts", "Hex Nut M6"),
	}}

	config := DefaultMatchConfig()
	config.MinScore = 0
	config.ReviewThreshold = 0
	config.AmbiguityMargin = 0

	service := NewMatchingService(catalog, NewHierarchyRegistry(nil, zerolog.Nop()), newTestNormalizer(), config, zerolog.Nop())
	service.SetScorer(&stubScorer{scores: map[string]float64{"N1": 0.2, "N2": 0.2}})

	assert.Zero(t, service.Config().MinScore)
	assert.Zero(t, service.Config().AmbiguityMargin)

	result, err := service.Match(context.Background(), &domain.ProductRequest{Category: "Nuts", ProductName: "Hex Nut"})
	require.NoError(t, err)

	// both low scores survive a zero minimum, and a zero margin never flags ambiguity
	require.Len(t, result.Matches, 2)
	assert.Empty(t, result.Flags)
}
