package cfg

import (
	"fmt"
	"sort"
)

// BlockGraph is the recovered control flow of one function or one program:
// a set of edges keyed by identity, free of exact duplicates by
// construction. A graph has a single writer while under construction;
// completed graphs are combined only through Merge.
type BlockGraph struct {
	edges map[EdgeKey]*Edge

	// Unrecognized holds raw bytes of graph-level wire fields from newer
	// producers, re-emitted verbatim on encode.
	Unrecognized []byte
}

// NewBlockGraph returns an empty graph.
func NewBlockGraph() *BlockGraph {
	return &BlockGraph{edges: make(map[EdgeKey]*Edge)}
}

// Len returns the number of edges.
func (g *BlockGraph) Len() int { return len(g.edges) }

// Add inserts e, replacing any edge with the same identity key. It returns
// the replaced edge, or nil if the key was new. The graph stores its own
// copy; the caller keeps ownership of e.
func (g *BlockGraph) Add(e *Edge) *Edge {
	if g.edges == nil {
		g.edges = make(map[EdgeKey]*Edge)
	}
	k := e.Key()
	prev := g.edges[k]
	g.edges[k] = e.Clone()
	return prev
}

// Get returns the edge with identity k, or nil.
func (g *BlockGraph) Get(k EdgeKey) *Edge {
	return g.edges[k]
}

// Edges returns the edge set sorted by identity key. The slice holds the
// graph's own edges; callers must not mutate them.
func (g *BlockGraph) Edges() []*Edge {
	out := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out
}

// Clone returns a deep copy of the graph.
func (g *BlockGraph) Clone() *BlockGraph {
	c := NewBlockGraph()
	for k, e := range g.edges {
		c.edges[k] = e.Clone()
	}
	if len(g.Unrecognized) > 0 {
		c.Unrecognized = append([]byte(nil), g.Unrecognized...)
	}
	return c
}

// Conflict reports that two merged graphs carried the same control transfer
// with differing payload or flags. Kept is the record that survived
// (last-writer-wins in merge argument order); Dropped is the one replaced.
type Conflict struct {
	Key     EdgeKey
	Kept    *Edge
	Dropped *Edge
}

func (c Conflict) String() string {
	return fmt.Sprintf("conflicting payload for edge 0x%x -> 0x%x (%s, ins 0x%x, stmt %d)",
		c.Key.Src, c.Key.Dst, c.Key.Kind, c.Key.InsAddr, c.Key.StmtIdx)
}

// Merge computes the edge-set union of two completed graphs. Edges sharing
// an identity key but disagreeing elsewhere resolve last-writer-wins in
// argument order (b over a) and are reported, so divergent re-analysis of
// the same transfer is visible to the caller. Neither input is mutated.
func Merge(a, b *BlockGraph) (*BlockGraph, []Conflict) {
	out := a.Clone()
	if len(out.Unrecognized) == 0 && len(b.Unrecognized) > 0 {
		out.Unrecognized = append([]byte(nil), b.Unrecognized...)
	}
	var conflicts []Conflict
	for _, e := range b.Edges() {
		k := e.Key()
		if prev, ok := out.edges[k]; ok {
			if prev.EquivalentTo(e) {
				continue
			}
			kept := e.Clone()
			out.edges[k] = kept
			conflicts = append(conflicts, Conflict{Key: k, Kept: kept, Dropped: prev})
			continue
		}
		out.edges[k] = e.Clone()
	}
	return out, conflicts
}

// MergeAll folds a sequence of graphs left to right, accumulating conflict
// reports. Useful for combining per-worker partial results.
func MergeAll(graphs ...*BlockGraph) (*BlockGraph, []Conflict) {
	out := NewBlockGraph()
	var conflicts []Conflict
	for _, g := range graphs {
		var cs []Conflict
		out, cs = Merge(out, g)
		conflicts = append(conflicts, cs...)
	}
	return out, conflicts
}
