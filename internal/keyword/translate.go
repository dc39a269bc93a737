package keyword

import (
	"errors"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/omomi/internal/query"
)

// ErrUnsupportedNode is returned when a node cannot be expressed as a Bleve query.
var ErrUnsupportedNode = errors.New("unsupported query node")

// Translate converts a node tree into a Bleve query.
//
// Payload nodes translate to their matching form only: a payload term is an
// exact term query and a payload near node is a conjunction of its terms.
// A conjunction matches more documents than the near window does, so a
// negated clause holding a near node is left out; callers must check the
// window and the left-out clauses on every hit.
func Translate(n query.Node) (blevequery.Query, error) {
	switch v := n.(type) {
	case nil:
		return bleve.NewMatchNoneQuery(), nil
	case *query.TermNode:
		if q, ok := v.Source.(blevequery.Query); ok {
			return q, nil
		}
		return termQuery(v.Field, v.Term), nil
	case *query.PhraseNode:
		if q, ok := v.Source.(blevequery.Query); ok {
			return q, nil
		}
		return bleve.NewPhraseQuery(v.Terms, v.Field), nil
	case *query.PayloadTermNode:
		return termQuery(v.Field, v.Term), nil
	case *query.PayloadNearNode:
		seen := make(map[string]bool, len(v.Terms))
		var conjuncts []blevequery.Query
		for _, t := range v.Terms {
			if seen[t] {
				continue
			}
			seen[t] = true
			conjuncts = append(conjuncts, termQuery(v.Field, t))
		}
		return bleve.NewConjunctionQuery(conjuncts...), nil
	case *query.BooleanNode:
		return translateBoolean(v)
	case *query.OtherNode:
		if q, ok := v.Query.(blevequery.Query); ok {
			return q, nil
		}
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedNode, v.Query)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedNode, n)
	}
}

func termQuery(field, term string) *blevequery.TermQuery {
	q := bleve.NewTermQuery(term)
	q.SetField(field)
	return q
}

func translateAll(nodes []query.Node) ([]blevequery.Query, error) {
	out := make([]blevequery.Query, 0, len(nodes))
	for _, n := range nodes {
		q, err := Translate(n)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func translateBoolean(b *query.BooleanNode) (blevequery.Query, error) {
	must, err := translateAll(b.Must)
	if err != nil {
		return nil, err
	}
	should, err := translateAll(b.Should)
	if err != nil {
		return nil, err
	}
	var negated []query.Node
	for _, n := range b.MustNot {
		if !query.HasNear(n) {
			negated = append(negated, n)
		}
	}
	mustNot, err := translateAll(negated)
	if err != nil {
		return nil, err
	}

	if len(must) == 0 && len(should) == 0 && len(mustNot) == 0 {
		if len(b.MustNot) > 0 {
			return bleve.NewMatchAllQuery(), nil
		}
		return bleve.NewMatchNoneQuery(), nil
	}
	// Without a must clause at least one should clause has to match.
	if len(must) == 0 && len(should) > 0 {
		d := bleve.NewDisjunctionQuery(should...)
		if len(mustNot) == 0 {
			return d, nil
		}
		must = []blevequery.Query{d}
		should = nil
	}

	bq := bleve.NewBooleanQuery()
	if len(must) > 0 {
		bq.AddMust(must...)
	}
	if len(should) > 0 {
		bq.AddShould(should...)
	}
	if len(mustNot) > 0 {
		bq.AddMustNot(mustNot...)
	}
	return bq, nil
}
