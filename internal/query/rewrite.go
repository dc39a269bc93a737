package query

import "github.com/hyperjump/omomi/internal/payload"

// FieldClassifier reports whether a field stores payloads at term positions.
// Implementations must be side-effect free; answers are not cached.
type FieldClassifier interface {
	IsPayloadBearing(field string) bool
}

// LeafHook receives each fully resolved leaf node and returns the node that
// replaces it in the tree.
type LeafHook func(Node) Node

// Parser resolves query text into a tree, handing every leaf to hook.
// A nil node with a nil error means the text was empty.
type Parser interface {
	Parse(text string, hook LeafHook) (Node, error)
}

// Rewrite substitutes term and phrase nodes on payload-bearing fields with
// payload-scored equivalents. Any other node, or a node on a field without
// payloads, is returned as is.
func Rewrite(n Node, fields FieldClassifier, fn payload.Function) Node {
	if fields == nil {
		return n
	}
	switch v := n.(type) {
	case *TermNode:
		if !fields.IsPayloadBearing(v.Field) {
			return n
		}
		return &PayloadTermNode{Field: v.Field, Term: v.Term, Function: fn}
	case *PhraseNode:
		if !fields.IsPayloadBearing(v.Field) {
			return n
		}
		// Order is relaxed: payload phrases only require proximity.
		terms := append([]string(nil), v.Terms...)
		return &PayloadNearNode{Field: v.Field, Terms: terms, Slop: v.Slop, InOrder: false, Function: fn}
	default:
		return n
	}
}

// Rewriter returns a LeafHook applying Rewrite with fields and fn.
func Rewriter(fields FieldClassifier, fn payload.Function) LeafHook {
	return func(n Node) Node {
		return Rewrite(n, fields, fn)
	}
}
