package payload

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultDelimiter separates a term from its weight, as in "urgent|2.5".
const DefaultDelimiter = "|"

// Token is one term of a payload-bearing field with its 1-based position.
// Payload is nil when the token carried no weight.
type Token struct {
	Term     string
	Position int
	Payload  []byte
}

// ParseDelimited splits text on whitespace and strips "term<delim>weight"
// suffixes. Weights must be finite numbers. Terms are lowercased. Tokens with an empty term are dropped and do
// not consume a position, so positions line up with a whitespace/lowercase
// analyzer run over Terms(tokens).
func ParseDelimited(text, delim string) ([]Token, error) {
	if delim == "" {
		delim = DefaultDelimiter
	}
	fields := strings.Fields(text)
	tokens := make([]Token, 0, len(fields))
	for _, f := range fields {
		term, weight := f, ""
		if i := strings.LastIndex(f, delim); i >= 0 {
			term, weight = f[:i], f[i+len(delim):]
		}
		term = strings.ToLower(term)
		if term == "" {
			continue
		}
		tok := Token{Term: term, Position: len(tokens) + 1}
		if weight != "" {
			w, err := strconv.ParseFloat(weight, 32)
			if err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, fmt.Errorf("%w: %q in token %q", ErrInvalidPayload, weight, f)
			}
			tok.Payload = Encode(float32(w))
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// Terms joins the token terms with single spaces.
func Terms(tokens []Token) string {
	terms := make([]string, len(tokens))
	for i, t := range tokens {
		terms[i] = t.Term
	}
	return strings.Join(terms, " ")
}

// CheckWeights returns ErrInvalidPayload for the first token whose weight is
// outside the domain of fn.
func CheckWeights(tokens []Token, fn Function) error {
	for _, t := range tokens {
		if t.Payload == nil {
			continue
		}
		w, err := Decode(t.Payload)
		if err == nil {
			_, err = fn.Accumulate(State{}, float64(w))
		}
		if err != nil {
			return fmt.Errorf("%w: token %q at position %d: %v", ErrInvalidPayload, t.Term, t.Position, err)
		}
	}
	return nil
}
