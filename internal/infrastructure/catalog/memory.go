// Package catalog provides catalog storage adapters implementing domain.CatalogRepository.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stockmatch/backend/internal/domain"
)

// seedFile is the on-disk layout of a catalog snapshot
type seedFile struct {
	Items []domain.CatalogItem `json:"items" yaml:"items"`
}

// MemoryCatalog serves a fixed catalog snapshot from memory
type MemoryCatalog struct {
	byCategory map[string][]domain.CatalogItem
	size       int
}

// NewMemoryCatalog indexes items by normalized category, keeping input order
func NewMemoryCatalog(items []domain.CatalogItem) *MemoryCatalog {
	c := &MemoryCatalog{byCategory: make(map[string][]domain.CatalogItem)}
	for _, item := range items {
		key := domain.NormalizeKey(item.Category)
		c.byCategory[key] = append(c.byCategory[key], item)
	}
	c.size = len(items)
	return c
}

// LoadMemoryCatalog reads a JSON or YAML seed file with a top-level "items" list
func LoadMemoryCatalog(path string) (*MemoryCatalog, error) {
	items, err := ReadSeedFile(path)
	if err != nil {
		return nil, err
	}
	return NewMemoryCatalog(items), nil
}

// ReadSeedFile decodes catalog items from a JSON or YAML file, chosen by extension
func ReadSeedFile(path string) ([]domain.CatalogItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog seed: %w", err)
	}

	var seed seedFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &seed)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &seed)
	default:
		return nil, fmt.Errorf("unsupported catalog seed format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("decode catalog seed %s: %w", path, err)
	}

	for i, item := range seed.Items {
		if strings.TrimSpace(item.ItemID) == "" {
			return nil, fmt.Errorf("catalog seed %s: item %d has no itemId", path, i)
		}
	}
	if err := checkUniqueIDs(seed.Items); err != nil {
		return nil, fmt.Errorf("catalog seed %s: %w", path, err)
	}

	return seed.Items, nil
}

// checkUniqueIDs rejects item sets that repeat an itemId
func checkUniqueIDs(items []domain.CatalogItem) error {
	seen := make(map[string]int, len(items))
	for i, item := range items {
		if first, ok := seen[item.ItemID]; ok {
			return fmt.Errorf("duplicate itemId %q at items %d and %d", item.ItemID, first, i)
		}
		seen[item.ItemID] = i
	}
	return nil
}

// ItemsInCategory returns a copy of the items in category
func (c *MemoryCatalog) ItemsInCategory(ctx context.Context, category string) ([]domain.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	items := c.byCategory[domain.NormalizeKey(category)]
	out := make([]domain.CatalogItem, len(items))
	copy(out, items)
	return out, nil
}

// Size returns the number of items in the snapshot
func (c *MemoryCatalog) Size() int {
	return c.size
}
