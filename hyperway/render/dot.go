// Package render serializes hyperway graphs to Graphviz DOT.
//
// The renderer is a read-only consumer of the Graph surface: it never
// mutates units or edges, and the engine has no dependency on it.
package render

import (
	"fmt"
	"strings"

	"github.com/dshills/hyperway-go/hyperway"
)

// DOT renders g as a Graphviz digraph.
//
// Units render as nodes labeled by their display name; merge-marked
// units use a doubled octagon shape. Edges render in insertion order,
// labeled with their name (if set) and a wire marker when a transform is
// attached. Pipe the output to dot:
//
//	dot -Tsvg graph.dot -o graph.svg
func DOT(g *hyperway.Graph) string {
	var b strings.Builder
	b.WriteString("digraph hyperway {\n")
	b.WriteString("\trankdir=LR;\n")
	b.WriteString("\tnode [shape=box, fontname=\"Helvetica\"];\n")

	for _, u := range g.Units() {
		attrs := fmt.Sprintf("label=%q", u.Name())
		if u.IsMergeNode() {
			attrs += ", shape=doubleoctagon"
		}
		fmt.Fprintf(&b, "\t%q [%s];\n", u.ID(), attrs)
	}

	for _, e := range g.Edges() {
		label := e.Name()
		if e.Wire() != nil {
			if label != "" {
				label += " "
			}
			label += "~wire~"
		}
		if label != "" {
			fmt.Fprintf(&b, "\t%q -> %q [label=%q];\n", e.A().ID(), e.B().ID(), label)
		} else {
			fmt.Fprintf(&b, "\t%q -> %q;\n", e.A().ID(), e.B().ID())
		}
	}

	b.WriteString("}\n")
	return b.String()
}
