package search

import (
	"github.com/hyperjump/omomi/internal/models"
	"github.com/hyperjump/omomi/internal/payload"
	"github.com/hyperjump/omomi/internal/query"
)

// ProcessQuery validates the request, applies limit defaults and parses the
// query text. Leaves on payload-bearing fields are rewritten with fn.
func ProcessQuery(q *models.SearchQuery, p query.Parser, fields query.FieldClassifier, fn payload.Function, defaultLimit, maxLimit int) (query.Node, error) {
	if err := q.Validate(defaultLimit, maxLimit); err != nil {
		return nil, err
	}
	return p.Parse(q.Query, query.Rewriter(fields, fn))
}
