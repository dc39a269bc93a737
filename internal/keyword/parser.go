package keyword

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/omomi/internal/query"
)

// QueryStringParser parses Bleve query string syntax into query nodes.
// Unfielded clauses are resolved against DefaultField. Quoted phrases become
// phrase nodes with PhraseSlop. Leaf text is split with Analyzer when set,
// otherwise on whitespace after lowercasing.
type QueryStringParser struct {
	DefaultField string
	PhraseSlop   int
	Analyzer     FieldAnalyzer
}

// Parse implements query.Parser. Every resolved term and phrase leaf is passed
// through hook before it is placed in the tree.
func (p *QueryStringParser) Parse(text string, hook query.LeafHook) (query.Node, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	q, err := bleve.NewQueryStringQuery(text).Parse()
	if err != nil {
		return nil, fmt.Errorf("failed to parse query %q: %w", text, err)
	}
	if hook == nil {
		hook = func(n query.Node) query.Node { return n }
	}
	return p.convert(q, hook), nil
}

func (p *QueryStringParser) convert(q blevequery.Query, hook query.LeafHook) query.Node {
	switch v := q.(type) {
	case *blevequery.BooleanQuery:
		b := &query.BooleanNode{}
		if v.Must != nil {
			b.Must = p.clauses(v.Must, hook)
		}
		if v.Should != nil {
			b.Should = p.clauses(v.Should, hook)
		}
		if v.MustNot != nil {
			b.MustNot = p.clauses(v.MustNot, hook)
		}
		return b
	case *blevequery.ConjunctionQuery:
		return &query.BooleanNode{Must: p.clauses(v, hook)}
	case *blevequery.DisjunctionQuery:
		return &query.BooleanNode{Should: p.clauses(v, hook)}
	case *blevequery.MatchQuery:
		return p.match(v, hook)
	case *blevequery.MatchPhraseQuery:
		return p.phrase(v, hook)
	default:
		return &query.OtherNode{Query: q}
	}
}

// clauses flattens the conjunction or disjunction wrapping boolean clauses.
func (p *QueryStringParser) clauses(q blevequery.Query, hook query.LeafHook) []query.Node {
	var qs []blevequery.Query
	switch v := q.(type) {
	case *blevequery.ConjunctionQuery:
		qs = v.Conjuncts
	case *blevequery.DisjunctionQuery:
		qs = v.Disjuncts
	default:
		qs = []blevequery.Query{q}
	}
	out := make([]query.Node, 0, len(qs))
	for _, c := range qs {
		out = append(out, p.convert(c, hook))
	}
	return out
}

func (p *QueryStringParser) field(f string) string {
	if f == "" {
		return p.DefaultField
	}
	return f
}

func (p *QueryStringParser) match(q *blevequery.MatchQuery, hook query.LeafHook) query.Node {
	if q.Fuzziness > 0 || q.Prefix > 0 {
		return &query.OtherNode{Query: q}
	}
	field := p.field(q.Field())
	if field != "" {
		q.SetField(field)
	}
	terms := p.analyze(field, q.Match)
	switch len(terms) {
	case 0:
		return &query.OtherNode{Query: q}
	case 1:
		return hook(&query.TermNode{Field: field, Term: terms[0], Source: q})
	}
	// Any of the terms may match.
	b := &query.BooleanNode{}
	for _, t := range terms {
		b.Should = append(b.Should, hook(&query.TermNode{Field: field, Term: t}))
	}
	return b
}

func (p *QueryStringParser) phrase(q *blevequery.MatchPhraseQuery, hook query.LeafHook) query.Node {
	field := p.field(q.Field())
	if field != "" {
		q.SetField(field)
	}
	terms := p.analyze(field, q.MatchPhrase)
	switch len(terms) {
	case 0:
		return &query.OtherNode{Query: q}
	case 1:
		return hook(&query.TermNode{Field: field, Term: terms[0], Source: q})
	}
	return hook(&query.PhraseNode{Field: field, Terms: terms, Slop: p.PhraseSlop, Source: q})
}

func (p *QueryStringParser) analyze(field, text string) []string {
	if p.Analyzer != nil {
		return p.Analyzer.AnalyzeField(field, text)
	}
	return strings.Fields(strings.ToLower(text))
}
