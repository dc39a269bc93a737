package query

// Visit is called for every node reached by Walk. required is true when the
// node must match for the document to match; negated is true below a MustNot.
type Visit func(n Node, required, negated bool)

// Walk visits n and every clause of nested boolean nodes in depth-first order.
func Walk(n Node, visit Visit) {
	walk(n, true, false, visit)
}

func walk(n Node, required, negated bool, visit Visit) {
	if n == nil {
		return
	}
	visit(n, required, negated)
	b, ok := n.(*BooleanNode)
	if !ok {
		return
	}
	for _, c := range b.Must {
		walk(c, required, negated, visit)
	}
	// A lone should clause is effectively required.
	shouldRequired := required && len(b.Must) == 0 && len(b.Should) == 1
	for _, c := range b.Should {
		walk(c, shouldRequired, negated, visit)
	}
	for _, c := range b.MustNot {
		walk(c, false, true, visit)
	}
}

// PayloadNodes returns the payload-scored nodes that can contribute to the
// score of a matching document, i.e. those not under a MustNot.
func PayloadNodes(n Node) []Node {
	var out []Node
	Walk(n, func(n Node, _, negated bool) {
		if negated {
			return
		}
		switch n.(type) {
		case *PayloadTermNode, *PayloadNearNode:
			out = append(out, n)
		}
	})
	return out
}

// HasNear reports whether n is or contains a payload near node.
func HasNear(n Node) bool {
	found := false
	Walk(n, func(n Node, _, _ bool) {
		if _, ok := n.(*PayloadNearNode); ok {
			found = true
		}
	})
	return found
}
