package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/stockmatch/backend/internal/domain"
)

// DefaultBatchWorkers bounds concurrent matches in a batch
const DefaultBatchWorkers = 16

// Matcher matches a single product request
type Matcher interface {
	Match(ctx context.Context, request *domain.ProductRequest) (*domain.MatchResult, error)
}

// BatchResult is the outcome for one request in a batch, in input order
type BatchResult struct {
	Index  int
	Result *domain.MatchResult
	Err    error
}

// BatchMatcher runs a Matcher over many requests with a bounded worker pool.
// Requests share nothing mutable, so no locking is needed beyond the result slots.
type BatchMatcher struct {
	matcher Matcher
	workers int
	logger  zerolog.Logger
}

// NewBatchMatcher creates a batch matcher; workers <= 0 uses DefaultBatchWorkers
func NewBatchMatcher(matcher Matcher, workers int, logger zerolog.Logger) *BatchMatcher {
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}
	return &BatchMatcher{
		matcher: matcher,
		workers: workers,
		logger:  logger,
	}
}

// MatchAll matches every request. A failure on one request is recorded on its
// result and does not stop the others. The returned error is non-nil only when
// ctx is cancelled before all requests are dispatched.
func (b *BatchMatcher) MatchAll(ctx context.Context, requests []domain.ProductRequest) ([]BatchResult, error) {
	batchID := uuid.NewString()
	started := time.Now()
	results := make([]BatchResult, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i := range requests {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = BatchResult{Index: i, Err: err}
				return err
			}
			res, err := b.matcher.Match(gctx, &requests[i])
			if err != nil {
				b.logger.Warn().
					Err(err).
					Str("batch_id", batchID).
					Int("index", i).
					Str("category", requests[i].Category).
					Msg("request failed in batch")
			}
			results[i] = BatchResult{Index: i, Result: res, Err: err}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	for i := range results {
		if results[i].Result == nil && results[i].Err == nil {
			results[i] = BatchResult{Index: i, Err: err}
		}
	}

	b.logger.Info().
		Str("batch_id", batchID).
		Int("requests", len(requests)).
		Int("workers", b.workers).
		Dur("elapsed", time.Since(started)).
		Msg("batch complete")

	return results, err
}
