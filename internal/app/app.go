package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stockmatch/backend/config"
	"github.com/stockmatch/backend/internal/domain"
	"github.com/stockmatch/backend/internal/infrastructure/cache"
	"github.com/stockmatch/backend/internal/infrastructure/catalog"
	"github.com/stockmatch/backend/internal/infrastructure/hierarchy"
	"github.com/stockmatch/backend/internal/infrastructure/metrics"
	"github.com/stockmatch/backend/internal/usecase"
)

// App is the wired matching engine shared by the server and the CLI
type App struct {
	Registry *usecase.HierarchyRegistry
	Matcher  *usecase.MatchingService
	Batch    *usecase.BatchMatcher

	closers []func() error
	logger  zerolog.Logger
}

// New builds the engine described by cfg. Close releases catalog and cache connections.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{logger: logger}

	source := hierarchy.NewFileSource(cfg.Hierarchy.File, logger)
	registry, err := usecase.LoadHierarchyRegistry(ctx, source, logger)
	if err != nil {
		return nil, err
	}
	a.Registry = registry

	synonyms := usecase.DefaultSynonyms()
	hasSynonyms, err := source.HasSynonyms(ctx)
	if err != nil {
		return nil, err
	}
	if hasSynonyms {
		if synonyms, err = source.LoadSynonyms(ctx); err != nil {
			return nil, err
		}
	}

	similarity, err := usecase.NewSimilarity(cfg.Matching.Similarity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	normalizer := usecase.NewValueNormalizer(synonyms, similarity, cfg.Matching.SynonymCutoff)

	repo, err := a.openCatalog(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Matcher = usecase.NewMatchingService(repo, registry, normalizer, cfg.Matching.MatchConfig(), logger)
	a.Matcher.SetRecorder(metrics.NewRecorder())
	a.Batch = usecase.NewBatchMatcher(a.Matcher, cfg.Matching.Workers, logger)

	logger.Info().
		Int("categories", len(registry.Categories())).
		Bool("custom_synonyms", hasSynonyms).
		Str("similarity", cfg.Matching.Similarity).
		Str("catalog", cfg.Catalog.Type).
		Str("cache", cfg.Cache.Type).
		Msg("matching engine ready")

	return a, nil
}

// openCatalog builds the configured catalog and wraps it in a read-through cache
func (a *App) openCatalog(ctx context.Context, cfg *config.Config) (domain.CatalogRepository, error) {
	var repo domain.CatalogRepository

	switch cfg.Catalog.Type {
	case config.CatalogMemory:
		memory, err := catalog.LoadMemoryCatalog(cfg.Catalog.SeedFile)
		if err != nil {
			return nil, err
		}
		a.logger.Info().Int("items", memory.Size()).Str("file", cfg.Catalog.SeedFile).Msg("catalog loaded")
		repo = memory
	case config.CatalogPostgres:
		pg, err := catalog.NewPostgresCatalog(ctx, cfg.Catalog.PostgresDSN, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		repo = pg
	case config.CatalogHTTP:
		repo = catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.APIKey, cfg.Catalog.RequestsPerSecond, a.logger)
	default:
		return nil, fmt.Errorf("%w: unknown catalog type %q", domain.ErrInvalidConfig, cfg.Catalog.Type)
	}

	store, err := a.openCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return repo, nil
	}
	return catalog.NewCachedCatalog(repo, store, cfg.Cache.TTL, a.logger), nil
}

// openCache returns nil when caching is disabled
func (a *App) openCache(ctx context.Context, cfg *config.Config) (domain.CacheRepository, error) {
	switch cfg.Cache.Type {
	case config.CacheNone:
		return nil, nil
	case config.CacheRedis:
		redisCfg, err := cache.RedisConfigFromURL(cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		store, err := cache.NewRedisCache(ctx, redisCfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	default:
		store := cache.NewMemoryCache(cache.DefaultCleanupInterval)
		a.closers = append(a.closers, store.Close)
		return store, nil
	}
}

// Close releases resources in reverse order of acquisition
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
