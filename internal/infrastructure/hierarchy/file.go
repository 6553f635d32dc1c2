// Package hierarchy loads property hierarchies and synonym tables from a YAML file.
package hierarchy

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// document is the file layout:
//
//	hierarchies:
//	  Nuts: [size, material, grade]
//	synonyms:
//	  material:
//	    ss: stainless steel
type document struct {
	Hierarchies map[string]yaml.Node         `yaml:"hierarchies"`
	Synonyms    map[string]map[string]string `yaml:"synonyms"`
}

// FileSource implements domain.HierarchySource and domain.SynonymSource over one file.
// The file is re-read on every load.
type FileSource struct {
	path   string
	logger zerolog.Logger
}

// NewFileSource creates a source for path
func NewFileSource(path string, logger zerolog.Logger) *FileSource {
	return &FileSource{path: path, logger: logger}
}

func (s *FileSource) read(ctx context.Context) (*document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read hierarchy file: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode hierarchy file %s: %w", s.path, err)
	}
	return &doc, nil
}

// LoadHierarchies returns category -> ordered property names. A category whose
// value is not a list of strings maps to nil.
func (s *FileSource) LoadHierarchies(ctx context.Context) (map[string][]string, error) {
	doc, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string, len(doc.Hierarchies))
	for category, node := range doc.Hierarchies {
		names, ok := decodeNames(&node)
		if !ok {
			s.logger.Warn().
				Str("file", s.path).
				Str("category", category).
				Int("line", node.Line).
				Msg("hierarchy value is not a list of property names")
		}
		out[category] = names
	}

	s.logger.Debug().Str("file", s.path).Int("categories", len(out)).Msg("hierarchies loaded")
	return out, nil
}

// decodeNames accepts only a sequence of scalar strings
func decodeNames(node *yaml.Node) ([]string, bool) {
	if node.Kind != yaml.SequenceNode {
		return nil, false
	}
	names := make([]string, 0, len(node.Content))
	for _, child := range node.Content {
		if child.Kind != yaml.ScalarNode {
			return nil, false
		}
		names = append(names, child.Value)
	}
	return names, true
}

// LoadSynonyms returns property -> raw value -> canonical value. Raw keys are lower-cased.
func (s *FileSource) LoadSynonyms(ctx context.Context) (map[string]map[string]string, error) {
	doc, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[string]string, len(doc.Synonyms))
	for prop, table := range doc.Synonyms {
		dst := make(map[string]string, len(table))
		for raw, canonical := range table {
			dst[strings.ToLower(strings.TrimSpace(raw))] = strings.TrimSpace(canonical)
		}
		out[prop] = dst
	}
	return out, nil
}

// HasSynonyms reports whether the file defines any synonym table
func (s *FileSource) HasSynonyms(ctx context.Context) (bool, error) {
	doc, err := s.read(ctx)
	if err != nil {
		return false, err
	}
	return len(doc.Synonyms) > 0, nil
}
