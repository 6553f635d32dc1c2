package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CatalogRepository reads catalog snapshots. It is the engine's only I/O boundary.
type CatalogRepository interface {
	ItemsInCategory(ctx context.Context, category string) ([]CatalogItem, error)
}

// HierarchySource supplies the raw category -> ordered property names mapping.
// A nil slice for a category means its configured value could not be read.
type HierarchySource interface {
	LoadHierarchies(ctx context.Context) (map[string][]string, error)
}

// SynonymSource supplies per-property synonym tables (raw value -> canonical value)
type SynonymSource interface {
	LoadSynonyms(ctx context.Context) (map[string]map[string]string, error)
}

// MatchRecorder observes match outcomes (metrics)
type MatchRecorder interface {
	ObserveMatch(result *MatchResult, duration time.Duration)
	ObserveCatalogError()
}
