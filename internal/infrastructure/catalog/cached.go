package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockmatch/backend/internal/domain"
)

// DefaultCacheTTL is how long a category snapshot stays cached
const DefaultCacheTTL = 5 * time.Minute

const cacheKeyPrefix = "catalog:"

// CachedCatalog caches per-category snapshots from another catalog repository.
// Cache read failures count as misses; write failures are logged and ignored.
type CachedCatalog struct {
	next   domain.CatalogRepository
	cache  domain.CacheRepository
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedCatalog wraps next with cache
func NewCachedCatalog(next domain.CatalogRepository, cache domain.CacheRepository, ttl time.Duration, logger zerolog.Logger) *CachedCatalog {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedCatalog{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// CacheKey returns the cache key for a category snapshot
func CacheKey(category string) string {
	return cacheKeyPrefix + domain.NormalizeKey(category)
}

// ItemsInCategory serves the snapshot from cache or loads and stores it
func (c *CachedCatalog) ItemsInCategory(ctx context.Context, category string) ([]domain.CatalogItem, error) {
	key := CacheKey(category)
	log := c.logger.With().Str("cache_key", key).Logger()

	data, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var items []domain.CatalogItem
		jsonErr := json.Unmarshal(data, &items)
		if jsonErr == nil {
			log.Debug().Int("items", len(items)).Msg("catalog cache hit")
			return items, nil
		}
		log.Warn().Err(jsonErr).Msg("discarding undecodable cache entry")
	case !errors.Is(err, domain.ErrCacheMiss):
		log.Warn().Err(err).Msg("catalog cache read failed")
	}

	items, err := c.next.ItemsInCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(items); err != nil {
		log.Warn().Err(err).Msg("catalog snapshot not cacheable")
	} else if err := c.cache.Set(ctx, key, encoded, c.ttl); err != nil {
		log.Warn().Err(err).Msg("catalog cache write failed")
	}

	return items, nil
}

// Invalidate drops the cached snapshot for category
func (c *CachedCatalog) Invalidate(ctx context.Context, category string) error {
	return c.cache.Delete(ctx, CacheKey(category))
}
