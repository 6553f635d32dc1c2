package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/stockmatch/backend/internal/domain"
	"github.com/stockmatch/backend/internal/usecase"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Hierarchy HierarchyConfig `mapstructure:"hierarchy"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// MatchingConfig holds engine thresholds and scorer weights
type MatchingConfig struct {
	MinScore                 float64         `mapstructure:"min_score"`
	ReviewThreshold          float64         `mapstructure:"review_threshold"`
	MaxMatches               int             `mapstructure:"max_matches"`
	FuzzyThreshold           float64         `mapstructure:"fuzzy_threshold"`
	ContinueThreshold        int             `mapstructure:"continue_threshold"`
	SynonymCutoff            float64         `mapstructure:"synonym_cutoff"`
	PropertyMatchThreshold   float64         `mapstructure:"property_match_threshold"`
	AmbiguityMargin          float64         `mapstructure:"ambiguity_margin"`
	MissingPropertyFlagCount int             `mapstructure:"missing_property_flag_count"`
	Similarity               string          `mapstructure:"similarity"`
	Weights                  usecase.Weights `mapstructure:"weights"`
	Workers                  int             `mapstructure:"workers"`
}

// CatalogConfig selects and configures catalog storage
type CatalogConfig struct {
	Type              string  `mapstructure:"type"` // "memory", "postgres" or "http"
	SeedFile          string  `mapstructure:"seed_file"`
	PostgresDSN       string  `mapstructure:"postgres_dsn"`
	BaseURL           string  `mapstructure:"base_url"`
	APIKey            string  `mapstructure:"api_key"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// HierarchyConfig locates the hierarchy and synonym file
type HierarchyConfig struct {
	File string `mapstructure:"file"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory", "redis" or "none"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Catalog storage types
const (
	CatalogMemory   = "memory"
	CatalogPostgres = "postgres"
	CatalogHTTP     = "http"
)

// Cache types
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration like Load, reading path instead of searching
// the default locations when path is non-empty.
func LoadFile(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/stockmatch/")
	}

	// Environment variable settings
	v.SetEnvPrefix("STOCKMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads .env from the working directory when present.
// Variables already set in the environment are not overridden.
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error reading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Matching defaults
	defaults := usecase.DefaultMatchConfig()
	v.SetDefault("matching.min_score", defaults.MinScore)
	v.SetDefault("matching.review_threshold", defaults.ReviewThreshold)
	v.SetDefault("matching.max_matches", defaults.MaxMatches)
	v.SetDefault("matching.fuzzy_threshold", defaults.FuzzyThreshold)
	v.SetDefault("matching.continue_threshold", defaults.ContinueThreshold)
	v.SetDefault("matching.synonym_cutoff", usecase.DefaultSynonymCutoff)
	v.SetDefault("matching.property_match_threshold", defaults.PropertyMatchThreshold)
	v.SetDefault("matching.ambiguity_margin", defaults.AmbiguityMargin)
	v.SetDefault("matching.missing_property_flag_count", defaults.MissingPropertyFlagCount)
	v.SetDefault("matching.similarity", usecase.SimilarityIndel)
	v.SetDefault("matching.weights.name", defaults.Weights.Name)
	v.SetDefault("matching.weights.category", defaults.Weights.Category)
	v.SetDefault("matching.weights.properties", defaults.Weights.Properties)
	v.SetDefault("matching.workers", usecase.DefaultBatchWorkers)

	// Catalog defaults
	v.SetDefault("catalog.type", CatalogMemory)
	v.SetDefault("catalog.seed_file", "./data/catalog.yaml")
	v.SetDefault("catalog.postgres_dsn", "")
	v.SetDefault("catalog.base_url", "")
	v.SetDefault("catalog.api_key", "")
	v.SetDefault("catalog.requests_per_second", 5)

	// Hierarchy defaults
	v.SetDefault("hierarchy.file", "./data/hierarchies.yaml")

	// Cache defaults
	v.SetDefault("cache.type", CacheMemory)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "5m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 600)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// validate validates the configuration
func validate(config *Config) error {
	m := config.Matching

	unit := map[string]float64{
		"min_score":                m.MinScore,
		"review_threshold":         m.ReviewThreshold,
		"fuzzy_threshold":          m.FuzzyThreshold,
		"synonym_cutoff":           m.SynonymCutoff,
		"property_match_threshold": m.PropertyMatchThreshold,
		"ambiguity_margin":         m.AmbiguityMargin,
	}
	for name, value := range unit {
		if value < 0 || value > 1 || math.IsNaN(value) {
			return fmt.Errorf("%w: matching.%s must be within [0,1], got %v", domain.ErrInvalidConfig, name, value)
		}
	}

	if m.MaxMatches < 1 {
		return fmt.Errorf("%w: matching.max_matches must be at least 1", domain.ErrInvalidConfig)
	}
	if m.ContinueThreshold < 1 {
		return fmt.Errorf("%w: matching.continue_threshold must be at least 1", domain.ErrInvalidConfig)
	}
	if m.MissingPropertyFlagCount < 1 {
		return fmt.Errorf("%w: matching.missing_property_flag_count must be at least 1", domain.ErrInvalidConfig)
	}
	if _, err := usecase.NewSimilarity(m.Similarity); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	if err := m.Weights.Validate(); err != nil {
		return err
	}

	switch config.Catalog.Type {
	case CatalogMemory:
		if config.Catalog.SeedFile == "" {
			return fmt.Errorf("%w: catalog.seed_file is required for the memory catalog", domain.ErrInvalidConfig)
		}
	case CatalogPostgres:
		if config.Catalog.PostgresDSN == "" {
			return fmt.Errorf("%w: catalog.postgres_dsn is required (set STOCKMATCH_CATALOG_POSTGRES_DSN)", domain.ErrInvalidConfig)
		}
	case CatalogHTTP:
		if config.Catalog.BaseURL == "" {
			return fmt.Errorf("%w: catalog.base_url is required for the http catalog", domain.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: catalog type must be 'memory', 'postgres' or 'http', got: %s", domain.ErrInvalidConfig, config.Catalog.Type)
	}

	switch config.Cache.Type {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if config.Cache.RedisURL == "" {
			return fmt.Errorf("%w: Redis URL is required when cache type is 'redis'", domain.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: cache type must be 'memory', 'redis' or 'none', got: %s", domain.ErrInvalidConfig, config.Cache.Type)
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("%w: ratelimit.per_ip must not be negative", domain.ErrInvalidConfig)
	}

	return nil
}

// MatchConfig converts the matching section into engine configuration
func (m MatchingConfig) MatchConfig() usecase.MatchConfig {
	return usecase.MatchConfig{
		MinScore:                 m.MinScore,
		ReviewThreshold:          m.ReviewThreshold,
		MaxMatches:               m.MaxMatches,
		FuzzyThreshold:           m.FuzzyThreshold,
		ContinueThreshold:        m.ContinueThreshold,
		PropertyMatchThreshold:   m.PropertyMatchThreshold,
		AmbiguityMargin:          m.AmbiguityMargin,
		MissingPropertyFlagCount: m.MissingPropertyFlagCount,
		Weights:                  m.Weights,
	}
}
