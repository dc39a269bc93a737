// Package query defines resolved query nodes and the payload-aware rewrite
// applied to leaf nodes.
package query

import (
	"fmt"
	"strings"

	"github.com/hyperjump/omomi/internal/payload"
)

// Kind identifies the kind of query node.
type Kind int

const (
	KindTerm Kind = iota
	KindPhrase
	KindBoolean
	KindOther
	KindPayloadTerm
	KindPayloadNear
)

// Node is the interface for all query tree nodes.
type Node interface {
	Kind() Kind
	String() string
}

// TermNode matches a single term in a field.
// Source optionally holds the host query the node was resolved from.
type TermNode struct {
	Field  string
	Term   string
	Source any
}

// PhraseNode matches an ordered sequence of terms within Slop positions.
type PhraseNode struct {
	Field  string
	Terms  []string
	Slop   int
	Source any
}

// BooleanNode combines clauses. Rewrite never looks inside it.
type BooleanNode struct {
	Must    []Node
	Should  []Node
	MustNot []Node
}

// OtherNode wraps a host query that has no term or phrase form (ranges,
// wildcards, match-all). It is passed through untouched.
type OtherNode struct {
	Query any
}

// PayloadTermNode matches Term exactly and is scored from its payloads.
type PayloadTermNode struct {
	Field    string
	Term     string
	Function payload.Function
}

// PayloadNearNode matches Terms within Slop positions in any order. Payloads of
// all terms feed one aggregation state per document.
type PayloadNearNode struct {
	Field    string
	Terms    []string
	Slop     int
	InOrder  bool
	Function payload.Function
}

func (*TermNode) Kind() Kind        { return KindTerm }
func (*PhraseNode) Kind() Kind      { return KindPhrase }
func (*BooleanNode) Kind() Kind     { return KindBoolean }
func (*OtherNode) Kind() Kind       { return KindOther }
func (*PayloadTermNode) Kind() Kind { return KindPayloadTerm }
func (*PayloadNearNode) Kind() Kind { return KindPayloadNear }

func (n *TermNode) String() string { return n.Field + ":" + n.Term }

func (n *PhraseNode) String() string {
	return fmt.Sprintf("%s:%q~%d", n.Field, strings.Join(n.Terms, " "), n.Slop)
}

func (n *BooleanNode) String() string {
	var parts []string
	for _, c := range n.Must {
		parts = append(parts, "+"+c.String())
	}
	for _, c := range n.Should {
		parts = append(parts, c.String())
	}
	for _, c := range n.MustNot {
		parts = append(parts, "-"+c.String())
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func (n *OtherNode) String() string { return fmt.Sprintf("other(%T)", n.Query) }

func (n *PayloadTermNode) String() string {
	return fmt.Sprintf("payload(%s:%s)", n.Field, n.Term)
}

func (n *PayloadNearNode) String() string {
	return fmt.Sprintf("payloadNear(%s:%q~%d)", n.Field, strings.Join(n.Terms, " "), n.Slop)
}
