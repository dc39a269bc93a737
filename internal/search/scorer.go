package search

import (
	"fmt"
	"sort"

	"github.com/hyperjump/omomi/internal/config"
	"github.com/hyperjump/omomi/internal/keyword"
	"github.com/hyperjump/omomi/internal/payload"
	"github.com/hyperjump/omomi/internal/query"
	"go.uber.org/zap"
)

// Scorer applies payload factors to keyword hits.
type Scorer struct {
	policy    string
	normalize bool
	logger    *zap.Logger
}

// NewScorer creates a scorer. policy is config.InvalidPayloadFail or
// config.InvalidPayloadSkip; an empty policy fails.
func NewScorer(policy string, normalize bool, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == "" {
		policy = config.InvalidPayloadFail
	}
	return &Scorer{policy: policy, normalize: normalize, logger: logger}
}

// DocumentScore is the scored form of one keyword hit.
type DocumentScore struct {
	DocumentID   string
	MatchScore   float64
	PayloadScore float64
	Score        float64
	// Contributions maps each payload node's String() to its finalized factor.
	Contributions map[string]float64
}

// Score combines the hit's match score with the factor of every payload node.
// A node with no matched positions in the document, such as a near node with
// no window within its slop, contributes the neutral factor.
func (s *Scorer) Score(hit *keyword.Hit, nodes []query.Node, toks *DocTokens) (*DocumentScore, error) {
	doc := &DocumentScore{
		DocumentID:    hit.ID,
		MatchScore:    hit.Score,
		PayloadScore:  1,
		Contributions: make(map[string]float64, len(nodes)),
	}
	for _, n := range nodes {
		var fn payload.Function
		switch v := n.(type) {
		case *query.PayloadTermNode:
			fn = v.Function
		case *query.PayloadNearNode:
			fn = v.Function
		default:
			continue
		}
		field, positions, err := toks.nodePositions(hit, n)
		if err != nil {
			return nil, err
		}

		state := payload.State{}
		if len(positions) > 0 {
			raws, err := toks.raws(field)
			if err != nil {
				return nil, err
			}
			state, err = s.accumulate(fn, occurrences(hit.ID, field, positions, raws))
			if err != nil {
				return nil, err
			}
		}
		factor := fn.Finalize(state)
		doc.Contributions[n.String()] = factor
		doc.PayloadScore *= factor
	}

	doc.Score = Combine(doc.MatchScore, doc.PayloadScore, s.normalize)
	return doc, nil
}

// occurrences pairs each matched position with its stored payload bytes.
// A position without a stored payload gets a nil Raw.
func occurrences(docID, field string, positions []int, raws map[int][]byte) []payload.Occurrence {
	out := make([]payload.Occurrence, len(positions))
	for i, pos := range positions {
		out[i] = payload.Occurrence{DocumentID: docID, Field: field, Start: pos, End: pos, Raw: raws[pos]}
	}
	return out
}

func (s *Scorer) accumulate(fn payload.Function, occs []payload.Occurrence) (payload.State, error) {
	state := payload.State{}
	for _, o := range occs {
		w, err := payload.Weight(o.Raw)
		if err == nil {
			var next payload.State
			next, err = fn.Accumulate(state, float64(w))
			if err == nil {
				state = next
				continue
			}
		}
		if s.policy != config.InvalidPayloadSkip {
			return state, fmt.Errorf("document %s field %s position %d: %w", o.DocumentID, o.Field, o.Start, err)
		}
		s.logger.Warn("skipping invalid payload",
			zap.String("document_id", o.DocumentID),
			zap.String("field", o.Field),
			zap.Int("position", o.Start),
			zap.Binary("payload", o.Raw),
			zap.Error(err))
	}
	return state, nil
}

// NearPositions returns the sorted positions of every occurrence lying in a
// window that holds all terms (repeated terms need distinct positions) and
// whose span minus the number of terms is at most slop. With inOrder the
// terms must also appear in the given order. locate returns the sorted
// positions of a term.
func NearPositions(terms []string, locate func(string) []int, slop int, inOrder bool) []int {
	if len(terms) == 0 {
		return nil
	}
	termPositions := make([][]int, len(terms))
	for i, t := range terms {
		termPositions[i] = locate(t)
		if len(termPositions[i]) == 0 {
			return nil
		}
	}
	if inOrder {
		return orderedNear(termPositions, slop)
	}
	return unorderedNear(terms, termPositions, slop)
}

type posTerm struct {
	pos  int
	term string
}

func unorderedNear(terms []string, termPositions [][]int, slop int) []int {
	need := make(map[string]int, len(terms))
	var merged []posTerm
	for i, t := range terms {
		if need[t] == 0 {
			for _, p := range termPositions[i] {
				merged = append(merged, posTerm{pos: p, term: t})
			}
		}
		need[t]++
	}
	sort.Slice(merged, func(a, b int) bool { return merged[a].pos < merged[b].pos })

	have := make(map[string]int, len(need))
	satisfied := 0
	covered := make(map[int]bool)
	left := 0
	for right, pt := range merged {
		have[pt.term]++
		if have[pt.term] == need[pt.term] {
			satisfied++
		}
		if satisfied < len(need) {
			continue
		}
		// Shrink to the smallest window ending at right.
		for have[merged[left].term] > need[merged[left].term] {
			have[merged[left].term]--
			left++
		}
		if merged[right].pos-merged[left].pos+1-len(terms) <= slop {
			for i := left; i <= right; i++ {
				covered[merged[i].pos] = true
			}
		}
	}
	return sortedKeys(covered)
}

func orderedNear(termPositions [][]int, slop int) []int {
	n := len(termPositions)
	covered := make(map[int]bool)
	for _, start := range termPositions[0] {
		window := []int{start}
		prev := start
		for i := 1; i < n; i++ {
			next := firstAfter(termPositions[i], prev)
			if next < 0 {
				break
			}
			window = append(window, next)
			prev = next
		}
		if len(window) < n {
			break
		}
		if prev-start+1-n <= slop {
			for _, p := range window {
				covered[p] = true
			}
		}
	}
	return sortedKeys(covered)
}

// firstAfter returns the first value in sorted ps greater than after, or -1.
func firstAfter(ps []int, after int) int {
	i := sort.SearchInts(ps, after+1)
	if i == len(ps) {
		return -1
	}
	return ps[i]
}

func sortedKeys(m map[int]bool) []int {
	if len(m) == 0 {
		return nil
	}
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
