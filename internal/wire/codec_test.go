package wire

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/encoding/protowire"

	"cfgpack/internal/cfg"
)

func singleEdgeGraph() *cfg.BlockGraph {
	g := cfg.NewBlockGraph()
	g.Add(&cfg.Edge{
		Src:     0x1000,
		Dst:     0x1010,
		Kind:    cfg.JumpBoring,
		InsAddr: 0x100C,
		StmtIdx: cfg.IndexUnknown,
	})
	return g
}

func TestRoundTripSingleEdge(t *testing.T) {
	g := singleEdgeGraph()
	enc := EncodeGraph(g)

	got, diag, err := DecodeGraph(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(diag) != 0 {
		t.Errorf("diagnostics = %v, want none", diag)
	}
	if got.Len() != 1 {
		t.Fatalf("edges = %d, want 1", got.Len())
	}
	if diff := cmp.Diff(g.Edges(), got.Edges()); diff != "" {
		t.Errorf("edge mismatch (-want +got):\n%s", diff)
	}

	// Merging with an identical graph must not duplicate the edge.
	merged, conflicts := cfg.Merge(got, singleEdgeGraph())
	if merged.Len() != 1 {
		t.Errorf("merged edges = %d, want 1", merged.Len())
	}
	if len(conflicts) != 0 {
		t.Errorf("conflicts = %v, want none", conflicts)
	}
}

func TestRoundTripProgram(t *testing.T) {
	g := cfg.NewBlockGraph()
	g.Add(&cfg.Edge{
		Src: 0x1000, Dst: 0x2000, Kind: cfg.JumpCall, InsAddr: 0x1ffc, StmtIdx: 3,
		Payload: map[string][]byte{"prov": {0xde, 0xad}, "ver": {1}},
	})
	g.Add(&cfg.Edge{
		Src: 0x1000, Dst: 0x1020, Kind: cfg.JumpFakeReturn, InsAddr: 0x1ffc,
		StmtIdx: cfg.IndexUnknown, IsOutside: true,
	})
	g.Add(&cfg.Edge{
		Src: math.MaxUint64 - 0x10, Dst: 0, Kind: cfg.JumpPrivileged,
		InsAddr: math.MaxUint64 - 4, StmtIdx: 0,
	})

	p := &cfg.Program{
		Arch: "arm64",
		Blocks: []cfg.Block{{
			Addr:  0x1000,
			Size:  8,
			Bytes: []byte{1, 2, 3, 4, 5, 6, 7, 8},
			Instructions: []cfg.Instruction{
				{
					Addr:  0x1000,
					Bytes: []byte{1, 2, 3, 4},
					Refs: []cfg.CodeReference{{
						Target: cfg.TargetData, Operand: cfg.OperandMemoryDisplacement,
						Location: cfg.LocExternal, Kind: cfg.RefRead,
						Addr: 0x8000, Mask: math.MaxUint64, Name: "g_state",
						DataAddr: 0x8000, BlockAddr: 0x1000,
						StmtIdx: cfg.IndexUnknown, OperandIdx: 1,
					}},
				},
				{Addr: 0x1004, Bytes: []byte{5, 6, 7, 8}, LocalNoReturn: true},
			},
		}},
		Functions: []cfg.ExternalFunction{{
			Name: "abort", Addr: 0x2000, Convention: cfg.ConvFastCall,
			NoReturn: true, ArgCount: 0, IsWeak: true, Prototype: "void abort(void)",
		}},
		Variables: []cfg.ExternalVariable{{
			Name: "errno", Addr: 0x9000, Size: 4, IsThreadLocal: true,
		}},
		Graph: g,
	}

	enc := EncodeProgram(p)
	got, diag, err := DecodeProgram(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(diag) != 0 {
		t.Errorf("diagnostics = %v, want none", diag)
	}

	if diff := cmp.Diff(p.Blocks, got.Blocks); diff != "" {
		t.Errorf("blocks (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(p.Functions, got.Functions); diff != "" {
		t.Errorf("functions (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(p.Variables, got.Variables); diff != "" {
		t.Errorf("variables (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(p.Graph.Edges(), got.Graph.Edges()); diff != "" {
		t.Errorf("edges (-want +got):\n%s", diff)
	}
	if got.Arch != "arm64" {
		t.Errorf("arch = %q, want arm64", got.Arch)
	}

	// Deterministic: encoding the decoded program reproduces the bytes.
	if !bytes.Equal(enc, EncodeProgram(got)) {
		t.Error("re-encode differs from original encoding")
	}
}

func TestDecodeUnknownEnumValue(t *testing.T) {
	g := cfg.NewBlockGraph()
	g.Add(&cfg.Edge{Src: 0x10, Dst: 0x20, Kind: cfg.JumpKind(99), InsAddr: 0x10})
	enc := EncodeGraph(g)

	got, diag, err := DecodeGraph(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	e := got.Edges()[0]
	if int32(e.Kind) != 99 {
		t.Errorf("kind = %d, want raw value 99 preserved", e.Kind)
	}
	if e.Kind.Known() {
		t.Error("kind 99 should not be known")
	}
	if e.Kind.String() != "Unknown(99)" {
		t.Errorf("kind string = %q", e.Kind.String())
	}

	var sawEnum bool
	for _, d := range diag {
		if d.Kind == DiagUnknownEnum {
			sawEnum = true
		}
	}
	if !sawEnum {
		t.Errorf("diagnostics = %v, want an %s advisory", diag, DiagUnknownEnum)
	}

	// Round-trips byte for byte despite the unmapped value.
	if !bytes.Equal(enc, EncodeGraph(got)) {
		t.Error("re-encode differs from original encoding")
	}
}

func TestUnknownFieldPassThrough(t *testing.T) {
	edge := appendEdge(nil, &cfg.Edge{Src: 0x1000, Dst: 0x1010, Kind: cfg.JumpBoring, InsAddr: 0x100c})

	// A future producer appends field 100 (varint) to the edge record.
	edge = protowire.AppendTag(edge, 100, protowire.VarintType)
	edge = protowire.AppendVarint(edge, 42)
	enc := appendMessageField(nil, graphFieldEdge, edge)

	got, diag, err := DecodeGraph(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var sawField bool
	for _, d := range diag {
		if d.Kind == DiagUnknownField {
			sawField = true
		}
	}
	if !sawField {
		t.Errorf("diagnostics = %v, want an %s advisory", diag, DiagUnknownField)
	}
	e := got.Edges()[0]
	if len(e.Unrecognized) == 0 {
		t.Fatal("unknown field bytes not preserved")
	}

	// Re-encoding keeps the foreign field intact.
	if !bytes.Equal(enc, EncodeGraph(got)) {
		t.Error("re-encode dropped or moved the unknown field")
	}

	// Graph-level foreign fields survive the same way: edges re-emit in
	// sorted key order, preserved bytes follow.
	genc := appendMessageField(nil, graphFieldEdge,
		appendEdge(nil, &cfg.Edge{Src: 0x1000, Dst: 0x1010, Kind: cfg.JumpBoring, InsAddr: 0x100c}))
	genc = protowire.AppendTag(genc, 2, protowire.VarintType)
	genc = protowire.AppendVarint(genc, 7)

	gg, gdiag, err := DecodeGraph(genc)
	if err != nil {
		t.Fatalf("decode graph: %v", err)
	}
	var sawGraphField bool
	for _, d := range gdiag {
		if d.Kind == DiagUnknownField {
			sawGraphField = true
		}
	}
	if !sawGraphField {
		t.Errorf("diagnostics = %v, want an %s advisory for the graph field", gdiag, DiagUnknownField)
	}
	if len(gg.Unrecognized) == 0 {
		t.Fatal("graph-level unknown field bytes not preserved")
	}
	if !bytes.Equal(genc, EncodeGraph(gg)) {
		t.Error("re-encode dropped the graph-level unknown field")
	}
}

func TestDecodeEnumRangeOverflow(t *testing.T) {
	// A varint beyond 32 bits cannot round-trip through a 32-bit enum;
	// decode must say so rather than alias it to a named kind.
	edge := protowire.AppendTag(nil, edgeFieldSrc, protowire.Fixed64Type)
	edge = protowire.AppendFixed64(edge, 0x10)
	edge = protowire.AppendTag(edge, edgeFieldKind, protowire.VarintType)
	edge = protowire.AppendVarint(edge, (1<<32)+1)
	enc := appendMessageField(nil, graphFieldEdge, edge)

	_, diag, err := DecodeGraph(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var sawRange bool
	for _, d := range diag {
		if d.Kind == DiagUnknownEnum {
			sawRange = true
		}
	}
	if !sawRange {
		t.Errorf("diagnostics = %v, want an %s advisory for the out-of-range value", diag, DiagUnknownEnum)
	}
}

func TestDecodePayloadEntryUnknownField(t *testing.T) {
	var entry []byte
	entry = appendStringField(entry, payloadFieldKey, "origin")
	entry = appendBytesField(entry, payloadFieldValue, []byte("worker-1"))
	entry = protowire.AppendTag(entry, 9, protowire.VarintType)
	entry = protowire.AppendVarint(entry, 1)
	edge := appendMessageField(nil, edgeFieldPayload, entry)
	enc := appendMessageField(nil, graphFieldEdge, edge)

	got, diag, err := DecodeGraph(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var sawField bool
	for _, d := range diag {
		if d.Kind == DiagUnknownField {
			sawField = true
		}
	}
	if !sawField {
		t.Errorf("diagnostics = %v, want an %s advisory for the payload entry", diag, DiagUnknownField)
	}
	e := got.Edges()[0]
	if string(e.Payload["origin"]) != "worker-1" {
		t.Errorf("payload = %q, want known pair decoded", e.Payload["origin"])
	}
}

func TestDecodeTruncated(t *testing.T) {
	enc := EncodeGraph(singleEdgeGraph())
	for _, cut := range []int{1, 5, len(enc) - 1} {
		_, _, err := DecodeGraph(enc[:cut])
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("cut at %d: err = %v, want ErrMalformed", cut, err)
		}
	}
}

func TestDecodeWrongWireType(t *testing.T) {
	// edge src encoded as varint instead of fixed64.
	var edge []byte
	edge = protowire.AppendTag(edge, edgeFieldSrc, protowire.VarintType)
	edge = protowire.AppendVarint(edge, 0x1000)
	enc := appendMessageField(nil, graphFieldEdge, edge)

	_, _, err := DecodeGraph(enc)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestDecodeBlockAddressOverflow(t *testing.T) {
	p := &cfg.Program{Blocks: []cfg.Block{{Addr: math.MaxUint64 - 2, Size: 16}}}
	enc := EncodeProgram(p)

	_, _, err := DecodeProgram(enc)
	if !errors.Is(err, ErrAddressOverflow) {
		t.Errorf("err = %v, want ErrAddressOverflow", err)
	}
}

func TestDecodeDuplicateEdge(t *testing.T) {
	one := EncodeGraph(singleEdgeGraph())
	two := append(append([]byte(nil), one...), one...)

	got, diag, err := DecodeGraph(two)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Len() != 1 {
		t.Errorf("edges = %d, want 1", got.Len())
	}
	var sawDup bool
	for _, d := range diag {
		if d.Kind == DiagDuplicateEdge {
			sawDup = true
		}
	}
	if !sawDup {
		t.Errorf("diagnostics = %v, want a %s advisory", diag, DiagDuplicateEdge)
	}
}

func TestEncodeEmptyGraph(t *testing.T) {
	enc := EncodeGraph(cfg.NewBlockGraph())
	if len(enc) != 0 {
		t.Errorf("empty graph encodes to %d bytes, want 0", len(enc))
	}
	g, diag, err := DecodeGraph(nil)
	if err != nil || len(diag) != 0 {
		t.Fatalf("decode empty: err=%v diag=%v", err, diag)
	}
	if g.Len() != 0 {
		t.Errorf("edges = %d, want 0", g.Len())
	}
}
