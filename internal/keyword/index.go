// Package keyword provides the full-text index that matches query nodes and
// reports where each matched term occurs.
package keyword

import (
	"context"

	"github.com/hyperjump/omomi/internal/query"
)

// KeywordIndex defines keyword indexing and search operations.
type KeywordIndex interface {
	// Index stores analysed field text for a document, replacing any previous version.
	Index(ctx context.Context, id string, fields map[string]string) error
	// Search matches n and returns up to size hits with term locations.
	Search(ctx context.Context, n query.Node, size int) ([]*Hit, error)
	// SearchWithin matches n against the documents in ids only.
	SearchWithin(ctx context.Context, n query.Node, ids []string) ([]*Hit, error)
	Delete(ctx context.Context, id string) error
	// DocCount returns the total number of documents in the index.
	DocCount() (uint64, error)
	Close() error
}

// FieldAnalyzer splits query text into the terms the index stores for field.
type FieldAnalyzer interface {
	AnalyzeField(field, text string) []string
}

// Hit is a single keyword search hit.
type Hit struct {
	ID    string
	Score float64
	// Locations maps field -> term -> sorted 1-based token positions.
	Locations map[string]map[string][]int
}

// Positions returns the positions of term in field, or nil.
func (h *Hit) Positions(field, term string) []int {
	if h == nil || h.Locations == nil {
		return nil
	}
	return h.Locations[field][term]
}
