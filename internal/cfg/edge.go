package cfg

import (
	"bytes"
	"sort"
)

// Edge is one directed control-flow edge. Edges reference blocks by address;
// the block bodies live in the surrounding Program tables.
type Edge struct {
	Src       uint64
	Dst       uint64
	Kind      JumpKind
	IsOutside bool   // transfer leaves the function being modeled
	InsAddr   uint64 // address of the transferring instruction
	StmtIdx   int32  // IR statement index; IndexUnknown if not known

	// Payload carries producer/consumer-defined auxiliary data keyed by
	// string. The byte values are opaque and never inspected here.
	Payload map[string][]byte

	Unrecognized []byte
}

// EdgeKey is the identity of an edge within a graph. Two edges with the same
// key describe the same control transfer; only payload and flags may differ.
type EdgeKey struct {
	Src     uint64
	Dst     uint64
	InsAddr uint64
	StmtIdx int32
	Kind    JumpKind
}

// Key returns the edge's identity tuple.
func (e *Edge) Key() EdgeKey {
	return EdgeKey{Src: e.Src, Dst: e.Dst, InsAddr: e.InsAddr, StmtIdx: e.StmtIdx, Kind: e.Kind}
}

// Less orders keys for deterministic iteration and encoding.
func (k EdgeKey) Less(o EdgeKey) bool {
	if k.Src != o.Src {
		return k.Src < o.Src
	}
	if k.Dst != o.Dst {
		return k.Dst < o.Dst
	}
	if k.InsAddr != o.InsAddr {
		return k.InsAddr < o.InsAddr
	}
	if k.StmtIdx != o.StmtIdx {
		return k.StmtIdx < o.StmtIdx
	}
	return k.Kind < o.Kind
}

// EquivalentTo reports whether two edges agree on everything outside the
// identity key: the outside flag, payload, and unrecognized wire bytes.
func (e *Edge) EquivalentTo(o *Edge) bool {
	if e.IsOutside != o.IsOutside {
		return false
	}
	if !bytes.Equal(e.Unrecognized, o.Unrecognized) {
		return false
	}
	if len(e.Payload) != len(o.Payload) {
		return false
	}
	for k, v := range e.Payload {
		ov, ok := o.Payload[k]
		if !ok || !bytes.Equal(v, ov) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the edge.
func (e *Edge) Clone() *Edge {
	c := *e
	if e.Payload != nil {
		c.Payload = make(map[string][]byte, len(e.Payload))
		for k, v := range e.Payload {
			c.Payload[k] = append([]byte(nil), v...)
		}
	}
	c.Unrecognized = append([]byte(nil), e.Unrecognized...)
	return &c
}

// PayloadKeys returns the payload keys in sorted order. Used wherever the
// payload must be walked deterministically (encoding, rendering).
func (e *Edge) PayloadKeys() []string {
	if len(e.Payload) == 0 {
		return nil
	}
	keys := make([]string, 0, len(e.Payload))
	for k := range e.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
