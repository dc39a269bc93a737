package models

// SearchResult represents a single search hit.
type SearchResult struct {
	Document *Document `json:"document"`
	// Score is the final score: MatchScore times PayloadScore, normalised when configured.
	Score float64 `json:"score"`
	// MatchScore is the term-matching score from the keyword index.
	MatchScore float64 `json:"match_score"`
	// PayloadScore is the product of all payload node contributions (1.0 when none).
	PayloadScore float64 `json:"payload_score"`
	// Contributions maps each payload node to its finalized contribution.
	Contributions map[string]float64 `json:"contributions,omitempty"`
	Rank          int                `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
	// Rewritten is the query tree after payload rewriting, for inspection.
	Rewritten string `json:"rewritten,omitempty"`
}
