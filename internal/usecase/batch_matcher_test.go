package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockmatch/backend/internal/domain"
)

// countingMatcher echoes the category back and tracks concurrency
type countingMatcher struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	failOn   string
}

func (m *countingMatcher) Match(ctx context.Context, request *domain.ProductRequest) (*domain.MatchResult, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		peak := m.peak.Load()
		if n <= peak || m.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)

	if request.Category == m.failOn {
		return nil, fmt.Errorf("%w: down", domain.ErrCatalogUnavailable)
	}
	return &domain.MatchResult{
		Matches: []domain.InventoryMatch{{ItemID: request.Category, Rank: 1, Score: 1}},
		Flags:   []domain.ReviewFlag{},
	}, nil
}

func TestBatchMatcher_MatchAll(t *testing.T) {
	matcher := &countingMatcher{failOn: "cat-7"}
	batch := NewBatchMatcher(matcher, 4, zerolog.Nop())

	requests := make([]domain.ProductRequest, 20)
	for i := range requests {
		requests[i] = domain.ProductRequest{Category: fmt.Sprintf("cat-%d", i)}
	}

	results, err := batch.MatchAll(context.Background(), requests)
	require.NoError(t, err)
	require.Len(t, results, len(requests))

	for i, r := range results {
		assert.Equal(t, i, r.Index)
		if i == 7 {
			assert.ErrorIs(t, r.Err, domain.ErrCatalogUnavailable)
			assert.Nil(t, r.Result)
			continue
		}
		require.NoError(t, r.Err)
		assert.Equal(t, requests[i].Category, r.Result.Matches[0].ItemID)
	}

	assert.LessOrEqual(t, matcher.peak.Load(), int32(4))
}

func TestBatchMatcher_Empty(t *testing.T) {
	batch := NewBatchMatcher(&countingMatcher{}, 0, zerolog.Nop())

	results, err := batch.MatchAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBatchMatcher_CancelledContext(t *testing.T) {
	batch := NewBatchMatcher(&countingMatcher{}, 2, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	requests := []domain.ProductRequest{{Category: "a"}, {Category: "b"}, {Category: "c"}}
	results, err := batch.MatchAll(ctx, requests)

	assert.True(t, errors.Is(err, context.Canceled))
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Nil(t, r.Result)
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestBatchMatcher_WithMatchingService(t *testing.T) {
	service := newTestService(fastenerCatalog(), map[string][]string{"Nuts": {"size", "material"}})
	batch := NewBatchMatcher(service, 2, zerolog.Nop())

	requests := []domain.ProductRequest{
		{Category: "Nuts", ProductName: "Hex Nut M8", Properties: []domain.Property{prop("size", "M8"), prop("material", "ss")}},
		{Category: "Washers", ProductName: "Flat Washer"},
	}

	results, err := batch.MatchAll(context.Background(), requests)
	require.NoError(t, err)

	require.NoError(t, results[0].Err)
	assert.Equal(t, "N1", results[0].Result.Matches[0].ItemID)
	require.NoError(t, results[1].Err)
	assert.True(t, results[1].Result.HasFlag(domain.IssueInsufficientData))
}
