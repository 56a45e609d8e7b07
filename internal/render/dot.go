// Package render produces DOT and call-graph views of recovered control
// flow for downstream consumers. It reads decoded programs; it never
// mutates them.
package render

import (
	"fmt"
	"strings"

	"cfgpack/internal/cfg"
)

// maxLabelLines caps the per-block instruction listing; longer blocks show
// head and tail with an elision marker.
const maxLabelLines = 12

// ProgramDOT renders a program's block graph as DOT. Blocks present in the
// entity tables become full nodes listing their instructions; edge targets
// without a block body become stub nodes.
func ProgramDOT(p *cfg.Program, title string, t Theme) string {
	if p.Graph == nil || p.Graph.Len() == 0 {
		return ""
	}
	idx := cfg.BuildIndex(p)

	var b strings.Builder
	b.WriteString("digraph cfg {\n")
	b.WriteString("  rankdir=TB;\n")
	b.WriteString("  nodesep=0.3;\n")
	b.WriteString("  ranksep=0.4;\n")
	fmt.Fprintf(&b, "  bgcolor=%q;\n", t.Background)
	fmt.Fprintf(&b, "  node [shape=rect, style=filled, fillcolor=%q, color=%q, penwidth=0.5, fontname=\"Courier,monospace\", fontsize=8, fontcolor=%q, margin=\"0.08,0.04\"];\n",
		t.NodeFill, t.NodeBorder, t.TextColor)
	b.WriteString("  edge [penwidth=0.7, arrowsize=0.5, arrowhead=vee];\n")
	if title != "" {
		b.WriteString("  labelloc=t;\n  labeljust=l;\n")
		fmt.Fprintf(&b, "  label=%q;\n", title)
	}
	b.WriteByte('\n')

	// Full nodes for known blocks, stubs for bare addresses.
	emitted := make(map[uint64]bool)
	node := func(addr uint64) string {
		id := fmt.Sprintf("n%x", addr)
		if emitted[addr] {
			return id
		}
		emitted[addr] = true
		if blk := idx.BlockAt(addr); blk != nil {
			fmt.Fprintf(&b, "  %s [label=\"%s\"];\n", id, blockLabel(blk))
		} else {
			fmt.Fprintf(&b, "  %s [label=\"0x%x\", fillcolor=%q, fontcolor=%q];\n",
				id, addr, t.StubFill, t.ExternalText)
		}
		return id
	}

	for _, e := range p.Graph.Edges() {
		from := node(e.Src)
		var to string
		if e.Kind == cfg.JumpReturn && e.Dst == 0 {
			// Returns have no in-function destination; give each a sink.
			to = fmt.Sprintf("ret%x", e.InsAddr)
			fmt.Fprintf(&b, "  %s [label=\"ret\", shape=plaintext, fontcolor=%q];\n", to, t.ExternalText)
		} else {
			to = node(e.Dst)
		}
		attrs := fmt.Sprintf("color=%q", edgeColor(e, t))
		if e.Kind == cfg.JumpFakeReturn {
			attrs += ", style=dashed"
		}
		if e.IsOutside && e.Kind != cfg.JumpReturn {
			attrs += fmt.Sprintf(", label=\"out\", fontsize=7, fontcolor=%q", t.ExternalText)
		}
		fmt.Fprintf(&b, "  %s -> %s [%s];\n", from, to, attrs)
	}

	b.WriteString("}\n")
	return b.String()
}

func blockLabel(blk *cfg.Block) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("0x%x (%d bytes)", blk.Addr, blk.Size))
	for _, ins := range blk.Instructions {
		lines = append(lines, fmt.Sprintf("0x%x: % x", ins.Addr, ins.Bytes))
	}
	if len(lines) > maxLabelLines {
		head := lines[:maxLabelLines/2]
		tail := lines[len(lines)-maxLabelLines/2+1:]
		lines = append(head, fmt.Sprintf("... (%d more)", len(lines)-len(head)-len(tail)))
		lines = append(lines, tail...)
	}
	for i, l := range lines {
		lines[i] = strings.ReplaceAll(l, `"`, `\"`)
	}
	return strings.Join(lines, `\l`) + `\l`
}

func edgeColor(e *cfg.Edge, t Theme) string {
	switch e.Kind {
	case cfg.JumpBoring:
		return t.EdgeBoring
	case cfg.JumpCall:
		return t.EdgeCall
	case cfg.JumpFakeReturn:
		return t.EdgeFakeReturn
	case cfg.JumpReturn:
		return t.EdgeReturn
	default:
		return t.EdgeOther
	}
}
