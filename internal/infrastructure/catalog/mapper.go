package catalog

import (
	"sort"
	"strings"

	"github.com/stockmatch/backend/internal/domain"
)

// defaultAttributeConfidence applies when the inventory API omits a confidence
const defaultAttributeConfidence = 1.0

// InventoryItem is one item as returned by the remote inventory API
type InventoryItem struct {
	SKU         string               `json:"sku"`
	Category    string               `json:"category"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Attributes  []InventoryAttribute `json:"attributes"`
	Specs       map[string]string    `json:"specs"`
}

// InventoryAttribute is a named attribute in the inventory API
type InventoryAttribute struct {
	Name       string   `json:"name"`
	Value      string   `json:"value"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// InventoryResponse is the inventory API list payload
type InventoryResponse struct {
	Items []InventoryItem `json:"items"`
}

// MapToCatalogItem converts an inventory API item to a domain catalog item.
// Attributes keep their order; specs not already present as attributes are
// appended in name order. Blank names are dropped.
func MapToCatalogItem(in InventoryItem) domain.CatalogItem {
	item := domain.CatalogItem{
		ItemID:      strings.TrimSpace(in.SKU),
		Category:    strings.TrimSpace(in.Category),
		ProductName: strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Properties:  make([]domain.Property, 0, len(in.Attributes)+len(in.Specs)),
	}
	if item.Description == "" {
		item.Description = item.ProductName
	}

	for _, attr := range in.Attributes {
		name := strings.TrimSpace(attr.Name)
		if name == "" {
			continue
		}
		confidence := defaultAttributeConfidence
		if attr.Confidence != nil {
			confidence = *attr.Confidence
		}
		item.Properties = append(item.Properties, domain.Property{
			Name:       name,
			Value:      strings.TrimSpace(attr.Value),
			Confidence: confidence,
		})
	}

	names := make([]string, 0, len(in.Specs))
	for name := range in.Specs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, exists := item.Property(trimmed); exists {
			continue
		}
		item.Properties = append(item.Properties, domain.Property{
			Name:       trimmed,
			Value:      strings.TrimSpace(in.Specs[name]),
			Confidence: defaultAttributeConfidence,
		})
	}

	return item
}

// MapToCatalogItems converts a response, skipping items without a SKU
func MapToCatalogItems(resp *InventoryResponse) []domain.CatalogItem {
	items := make([]domain.CatalogItem, 0, len(resp.Items))
	for _, in := range resp.Items {
		if strings.TrimSpace(in.SKU) == "" {
			continue
		}
		items = append(items, MapToCatalogItem(in))
	}
	return items
}
