package search

import (
	"sort"

	"github.com/hyperjump/omomi/internal/payload"
)

// Combine multiplies the match score by the payload factor, optionally
// squashing the product into [0, 1).
func Combine(matchScore, payloadScore float64, normalize bool) float64 {
	s := matchScore * payloadScore
	if normalize {
		return payload.Normalize(s)
	}
	return s
}

// Rank sorts scores by descending score, breaking ties by document ID.
func Rank(scores []*DocumentScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].DocumentID < scores[j].DocumentID
	})
}

// FilterMinScore drops scores below minScore. A non-positive minScore keeps all.
func FilterMinScore(scores []*DocumentScore, minScore float64) []*DocumentScore {
	if minScore <= 0 {
		return scores
	}
	filtered := scores[:0]
	for _, s := range scores {
		if s.Score >= minScore {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
