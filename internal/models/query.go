package models

import (
	"errors"
)

// ErrEmptyQuery is returned for a search request without query text.
var ErrEmptyQuery = errors.New("query cannot be empty")

// SearchQuery represents a search request.
type SearchQuery struct {
	Query    string  `json:"query"`
	Limit    int     `json:"limit,omitempty"`
	Offset   int     `json:"offset,omitempty"`
	MinScore float64 `json:"min_score,omitempty"`
	// Explain includes per-node payload contributions in each result.
	Explain bool `json:"explain,omitempty"`
}

// Validate ensures the search query has valid fields and sets defaults.
// Returns ErrEmptyQuery if the query is empty; otherwise clamps limit into
// [1, maxLimit] using defaultLimit when unset.
func (q *SearchQuery) Validate(defaultLimit, maxLimit int) error {
	if q.Query == "" {
		return ErrEmptyQuery
	}
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if maxLimit <= 0 {
		maxLimit = 100
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return nil
}
