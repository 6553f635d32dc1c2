package domain

import "errors"

var (
	// ErrInvalidRequest is returned when a product request is missing or malformed
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCatalogUnavailable is returned when the catalog snapshot cannot be read.
	// It is distinct from an empty match result.
	ErrCatalogUnavailable = errors.New("catalog storage unavailable")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrHierarchyMalformed marks a category whose configured property order is unusable
	ErrHierarchyMalformed = errors.New("malformed property hierarchy")

	// ErrInvalidConfig is returned when engine settings are out of range
	ErrInvalidConfig = errors.New("invalid configuration")
)
