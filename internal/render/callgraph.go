package render

import (
	"fmt"
	"strings"

	"github.com/zboralski/lattice"

	"cfgpack/internal/cfg"
)

// FuncInfo names one function's recovered graph for call-graph assembly.
type FuncInfo struct {
	Name  string
	Addr  uint64
	Graph *cfg.BlockGraph
}

// BuildCallGraph assembles a function-level call graph from per-function
// block graphs. Each function becomes a node; each Call edge becomes a
// caller/callee pair. Targets with no known function get a sub_<addr>
// placeholder name.
func BuildCallGraph(funcs []FuncInfo) *lattice.Graph {
	byAddr := make(map[uint64]string, len(funcs))
	g := &lattice.Graph{}
	for _, f := range funcs {
		g.Nodes = append(g.Nodes, f.Name)
		byAddr[f.Addr] = f.Name
	}
	for _, f := range funcs {
		if f.Graph == nil {
			continue
		}
		for _, e := range f.Graph.Edges() {
			if e.Kind != cfg.JumpCall {
				continue
			}
			callee, ok := byAddr[e.Dst]
			if !ok {
				callee = fmt.Sprintf("sub_%x", e.Dst)
			}
			g.Edges = append(g.Edges, lattice.Edge{
				Caller: f.Name,
				Callee: callee,
			})
		}
	}
	g.Dedup()
	return g
}

// CallGraphDOT renders a deduplicated call graph as DOT. Known functions
// get full nodes; placeholder callees render as stubs.
func CallGraphDOT(g *lattice.Graph, title string, t Theme) string {
	known := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		known[n] = true
	}

	var b strings.Builder
	b.WriteString("digraph callgraph {\n")
	b.WriteString("  rankdir=LR;\n")
	fmt.Fprintf(&b, "  bgcolor=%q;\n", t.Background)
	fmt.Fprintf(&b, "  node [shape=rect, style=filled, fillcolor=%q, color=%q, penwidth=0.5, fontname=\"Courier,monospace\", fontsize=9, fontcolor=%q];\n",
		t.NodeFill, t.NodeBorder, t.TextColor)
	fmt.Fprintf(&b, "  edge [penwidth=0.7, arrowsize=0.5, arrowhead=vee, color=%q];\n", t.EdgeCall)
	if title != "" {
		b.WriteString("  labelloc=t;\n  labeljust=l;\n")
		fmt.Fprintf(&b, "  label=%q;\n", title)
	}
	b.WriteByte('\n')

	ids := make(map[string]string, len(g.Nodes))
	nextID := 0
	node := func(name string) string {
		if id, ok := ids[name]; ok {
			return id
		}
		id := fmt.Sprintf("f%d", nextID)
		nextID++
		ids[name] = id
		if known[name] {
			fmt.Fprintf(&b, "  %s [label=%q];\n", id, name)
		} else {
			fmt.Fprintf(&b, "  %s [label=%q, fillcolor=%q, fontcolor=%q];\n",
				id, name, t.StubFill, t.ExternalText)
		}
		return id
	}

	for _, n := range g.Nodes {
		node(n)
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "  %s -> %s;\n", node(e.Caller), node(e.Callee))
	}

	b.WriteString("}\n")
	return b.String()
}
