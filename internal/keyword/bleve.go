package keyword

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	keywordanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/whitespace"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/omomi/internal/query"
	"github.com/hyperjump/omomi/internal/schema"
)

// PayloadAnalyzer is the analyzer used for payload-bearing fields. It splits
// on whitespace and lowercases, so token positions match payload.ParseDelimited.
const PayloadAnalyzer = "payload_terms"

// BleveIndex implements KeywordIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path.
// If the path already exists, the existing index and its mapping are reused;
// changing a field's type in the schema requires removing the index directory
// and re-indexing.
func NewBleveIndex(path string, s *schema.Schema) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	im, err := NewIndexMapping(s)
	if err != nil {
		return nil, err
	}
	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewMemIndex creates an in-memory Bleve index.
func NewMemIndex(s *schema.Schema) (*BleveIndex, error) {
	im, err := NewIndexMapping(s)
	if err != nil {
		return nil, err
	}
	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewIndexMapping maps every schema field. Payload fields use PayloadAnalyzer,
// keyword fields are not tokenized, everything else uses the standard analyzer.
// Term vectors are kept so hits can report term positions.
func NewIndexMapping(s *schema.Schema) (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	err := im.AddCustomAnalyzer(PayloadAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     whitespace.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register payload analyzer: %w", err)
	}

	docMapping := bleve.NewDocumentMapping()
	for _, f := range s.Fields() {
		fm := bleve.NewTextFieldMapping()
		fm.IncludeTermVectors = true
		switch {
		case f.PayloadBearing():
			fm.Analyzer = PayloadAnalyzer
		case strings.EqualFold(f.Type, schema.TypeKeyword):
			fm.Analyzer = keywordanalyzer.Name
		default:
			fm.Analyzer = standard.Name
		}
		docMapping.AddFieldMappingsAt(f.Name, fm)
	}
	im.DefaultAnalyzer = standard.Name
	im.DefaultMapping = docMapping
	return im, nil
}

// Index indexes the document fields by id.
func (b *BleveIndex) Index(ctx context.Context, id string, fields map[string]string) error {
	doc := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		doc[k] = v
	}
	return b.index.Index(id, doc)
}

// Search translates n into a Bleve query and returns hits with term locations.
func (b *BleveIndex) Search(ctx context.Context, n query.Node, size int) ([]*Hit, error) {
	q, err := Translate(n)
	if err != nil {
		return nil, err
	}
	return b.search(ctx, q, size)
}

// SearchWithin is Search restricted to the documents in ids.
func (b *BleveIndex) SearchWithin(ctx context.Context, n query.Node, ids []string) ([]*Hit, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q, err := Translate(n)
	if err != nil {
		return nil, err
	}
	return b.search(ctx, bleve.NewConjunctionQuery(bleve.NewDocIDQuery(ids), q), len(ids))
}

func (b *BleveIndex) search(ctx context.Context, q blevequery.Query, size int) ([]*Hit, error) {
	req := bleve.NewSearchRequestOptions(q, size, 0, false)
	req.IncludeLocations = true
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}
	out := make([]*Hit, len(results.Hits))
	for i, hit := range results.Hits {
		h := &Hit{ID: hit.ID, Score: hit.Score, Locations: make(map[string]map[string][]int, len(hit.Locations))}
		for field, terms := range hit.Locations {
			byTerm := make(map[string][]int, len(terms))
			for term, locs := range terms {
				positions := make([]int, 0, len(locs))
				for _, loc := range locs {
					positions = append(positions, int(loc.Pos))
				}
				sort.Ints(positions)
				byTerm[term] = positions
			}
			h.Locations[field] = byTerm
		}
		out[i] = h
	}
	return out, nil
}

// AnalyzeField runs text through the analyzer mapped to field.
func (b *BleveIndex) AnalyzeField(field, text string) []string {
	m := b.index.Mapping()
	a := m.AnalyzerNamed(m.AnalyzerNameForPath(field))
	if a == nil {
		return strings.Fields(strings.ToLower(text))
	}
	tokens := a.Analyze([]byte(text))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, string(t.Term))
	}
	return out
}

// Delete removes a document from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// DocCount returns the total number of documents in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}
