package search

import (
	"context"
	"fmt"

	"github.com/hyperjump/omomi/internal/keyword"
	"github.com/hyperjump/omomi/internal/payload"
	"github.com/hyperjump/omomi/internal/query"
)

// TokenSource loads the stored tokens of one document field ordered by
// position.
type TokenSource interface {
	Tokens(ctx context.Context, docID, field string) ([]payload.Token, error)
}

type fieldTokens struct {
	positions map[string][]int
	raws      map[int][]byte
}

// DocTokens caches the stored tokens of one document, field by field.
type DocTokens struct {
	ctx    context.Context
	src    TokenSource
	docID  string
	fields map[string]*fieldTokens
}

// NewDocTokens returns an empty token cache for docID.
func NewDocTokens(ctx context.Context, src TokenSource, docID string) *DocTokens {
	return &DocTokens{ctx: ctx, src: src, docID: docID, fields: make(map[string]*fieldTokens)}
}

func (d *DocTokens) field(field string) (*fieldTokens, error) {
	if f, ok := d.fields[field]; ok {
		return f, nil
	}
	f := &fieldTokens{positions: make(map[string][]int), raws: make(map[int][]byte)}
	if d.src != nil {
		tokens, err := d.src.Tokens(d.ctx, d.docID, field)
		if err != nil {
			return nil, fmt.Errorf("failed to load tokens for %s/%s: %w", d.docID, field, err)
		}
		for _, t := range tokens {
			f.positions[t.Term] = append(f.positions[t.Term], t.Position)
			if t.Payload != nil {
				f.raws[t.Position] = t.Payload
			}
		}
	}
	d.fields[field] = f
	return f, nil
}

// locator returns the sorted positions of a term in field. A field with no
// stored tokens falls back to the locations reported with hit.
func (d *DocTokens) locator(hit *keyword.Hit, field string) (func(string) []int, error) {
	f, err := d.field(field)
	if err != nil {
		return nil, err
	}
	if len(f.positions) == 0 {
		return func(term string) []int { return hit.Positions(field, term) }, nil
	}
	return func(term string) []int { return f.positions[term] }, nil
}

// raws returns the stored payload bytes of field by position.
func (d *DocTokens) raws(field string) (map[int][]byte, error) {
	f, err := d.field(field)
	if err != nil {
		return nil, err
	}
	return f.raws, nil
}

// nodePositions returns the field and matched positions of a payload node.
// A near node has positions only where a window within its slop exists.
func (d *DocTokens) nodePositions(hit *keyword.Hit, n query.Node) (string, []int, error) {
	switch v := n.(type) {
	case *query.PayloadTermNode:
		locate, err := d.locator(hit, v.Field)
		if err != nil {
			return v.Field, nil, err
		}
		return v.Field, locate(v.Term), nil
	case *query.PayloadNearNode:
		locate, err := d.locator(hit, v.Field)
		if err != nil {
			return v.Field, nil, err
		}
		return v.Field, NearPositions(v.Terms, locate, v.Slop, v.InOrder), nil
	}
	return "", nil, nil
}

// truth is the outcome of checking one node against one hit. maybe means the
// keyword index matched the node and nothing more can be checked locally.
type truth int

const (
	no truth = iota
	maybe
	yes
)

func truthOf(b bool) truth {
	if b {
		return yes
	}
	return no
}

// Matcher re-checks keyword hits against the node tree. The keyword index
// matches a near node as a conjunction of its terms; Matcher applies the
// window, including under Should and MustNot clauses.
type Matcher struct {
	index keyword.KeywordIndex
	ids   []string
	// excluded holds, per negated clause, the candidates the index matched.
	excluded map[query.Node]map[string]*keyword.Hit
}

// NewMatcher returns a matcher over the candidate hits of one search.
func NewMatcher(index keyword.KeywordIndex, hits []*keyword.Hit) *Matcher {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return &Matcher{index: index, ids: ids, excluded: make(map[query.Node]map[string]*keyword.Hit)}
}

// Matches reports whether hit satisfies n.
func (m *Matcher) Matches(ctx context.Context, n query.Node, hit *keyword.Hit, toks *DocTokens) (bool, error) {
	t, err := m.eval(ctx, n, hit, toks)
	if err != nil {
		return false, err
	}
	return t != no, nil
}

func (m *Matcher) eval(ctx context.Context, n query.Node, hit *keyword.Hit, toks *DocTokens) (truth, error) {
	switch v := n.(type) {
	case nil:
		return no, nil
	case *query.TermNode:
		if v.Field == "" {
			return maybe, nil
		}
		return truthOf(len(hit.Positions(v.Field, v.Term)) > 0), nil
	case *query.PhraseNode:
		if v.Field == "" {
			return maybe, nil
		}
		locate := func(term string) []int { return hit.Positions(v.Field, term) }
		for _, t := range v.Terms {
			if len(locate(t)) == 0 {
				return no, nil
			}
		}
		if len(NearPositions(v.Terms, locate, v.Slop, true)) > 0 {
			return yes, nil
		}
		return maybe, nil
	case *query.PayloadTermNode, *query.PayloadNearNode:
		_, positions, err := toks.nodePositions(hit, v)
		if err != nil {
			return no, err
		}
		return truthOf(len(positions) > 0), nil
	case *query.BooleanNode:
		return m.evalBoolean(ctx, v, hit, toks)
	default:
		return maybe, nil
	}
}

func (m *Matcher) evalBoolean(ctx context.Context, b *query.BooleanNode, hit *keyword.Hit, toks *DocTokens) (truth, error) {
	// Negated clauses without a near node were applied by the keyword index.
	for _, c := range b.MustNot {
		if !query.HasNear(c) {
			continue
		}
		matched, err := m.negatedHits(ctx, c)
		if err != nil {
			return no, err
		}
		sub, ok := matched[hit.ID]
		if !ok {
			continue
		}
		t, err := m.eval(ctx, c, sub, toks)
		if err != nil {
			return no, err
		}
		if t != no {
			return no, nil
		}
	}

	if len(b.Must) > 0 {
		result := yes
		for _, c := range b.Must {
			t, err := m.eval(ctx, c, hit, toks)
			if err != nil {
				return no, err
			}
			result = min(result, t)
			if result == no {
				return no, nil
			}
		}
		return result, nil
	}
	if len(b.Should) > 0 {
		result := no
		for _, c := range b.Should {
			t, err := m.eval(ctx, c, hit, toks)
			if err != nil {
				return no, err
			}
			result = max(result, t)
			if result == yes {
				return yes, nil
			}
		}
		return result, nil
	}
	return yes, nil
}

func (m *Matcher) negatedHits(ctx context.Context, c query.Node) (map[string]*keyword.Hit, error) {
	if matched, ok := m.excluded[c]; ok {
		return matched, nil
	}
	hits, err := m.index.SearchWithin(ctx, c, m.ids)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	matched := make(map[string]*keyword.Hit, len(hits))
	for _, h := range hits {
		matched[h.ID] = h
	}
	m.excluded[c] = matched
	return matched, nil
}
