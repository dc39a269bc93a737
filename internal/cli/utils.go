// Package cli provides output helpers for the omomi command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/hyperjump/omomi/internal/models"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms\n", response.Total, response.QueryTime)
	if response.Rewritten != "" {
		fmt.Fprintf(w, "Query: %s\n", response.Rewritten)
	}
	fmt.Fprintln(w)
	for _, result := range response.Results {
		writeOneResult(w, result)
	}
}

func writeOneResult(w io.Writer, result *models.SearchResult) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.4f (Match: %.4f, Payload: %.4f)\n",
		result.Rank, result.Score, result.MatchScore, result.PayloadScore)
	fmt.Fprintf(w, "ID: %s\n", result.Document.ID)
	for _, name := range sortedKeys(result.Document.Fields) {
		fmt.Fprintf(w, "%s: %s\n", name, Truncate(result.Document.Fields[name], 200))
	}
	if len(result.Contributions) > 0 {
		fmt.Fprintln(w, "Payload contributions:")
		for _, node := range sortedKeys(result.Contributions) {
			fmt.Fprintf(w, "  %s = %.4f\n", node, result.Contributions[node])
		}
	}
	fmt.Fprintln(w)
}

// WriteStatus writes a status map as indented JSON or "key: value" lines.
func WriteStatus(w io.Writer, status map[string]interface{}, format SearchOutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}
	for _, k := range sortedKeys(status) {
		fmt.Fprintf(w, "%s: %v\n", k, status[k])
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Truncate truncates s to maxLen runes and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
