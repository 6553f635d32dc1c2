package domain

import "strings"

// Property is a named, valued attribute of a product (e.g. grade=8)
type Property struct {
	Name       string  `json:"name" yaml:"name"`
	Value      string  `json:"value" yaml:"value"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// ProductRequest represents a product mention extracted upstream from correspondence
type ProductRequest struct {
	Category    string     `json:"category" binding:"required"`
	ProductName string     `json:"productName"`
	Properties  []Property `json:"properties"`
}

// CatalogItem represents a single inventory item as read from catalog storage
type CatalogItem struct {
	ItemID      string     `json:"itemId" yaml:"itemId" db:"item_id"`
	Category    string     `json:"category" yaml:"category" db:"category"`
	ProductName string     `json:"productName" yaml:"productName" db:"product_name"`
	Description string     `json:"description" yaml:"description" db:"description"`
	Properties  []Property `json:"properties" yaml:"properties" db:"-"`
}

// PropertyHierarchy is the per-category ordering of property names, most important first
type PropertyHierarchy struct {
	Category      string   `json:"category"`
	PropertyOrder []string `json:"propertyOrder"`
}

// Unranked is returned by rank lookups for names absent from a hierarchy
const Unranked = -1

// RankOf returns the index of name in the hierarchy, or Unranked
func (h PropertyHierarchy) RankOf(name string) int {
	for i, p := range h.PropertyOrder {
		if strings.EqualFold(p, name) {
			return i
		}
	}
	return Unranked
}

// FindProperty returns the first property whose name matches case-insensitively
func FindProperty(props []Property, name string) (Property, bool) {
	for _, p := range props {
		if strings.EqualFold(strings.TrimSpace(p.Name), strings.TrimSpace(name)) {
			return p, true
		}
	}
	return Property{}, false
}

// Property returns the request's first property with the given name
func (r *ProductRequest) Property(name string) (Property, bool) {
	return FindProperty(r.Properties, name)
}

// Property returns the item's first property with the given name
func (c *CatalogItem) Property(name string) (Property, bool) {
	return FindProperty(c.Properties, name)
}

// NormalizeKey lower-cases and trims a category or property name for lookups
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
