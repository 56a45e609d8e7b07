package wire

import (
	"google.golang.org/protobuf/encoding/protowire"

	"cfgpack/internal/cfg"
)

// Encoding never fails for structurally valid in-memory input: every field
// is representable, and unrecognized bytes captured at decode are appended
// back verbatim. Default values (zero numbers, empty strings, false flags)
// are omitted, per the wire format's presence rules.

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBoolField(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, 1)
}

func appendFixed64Field(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, v)
}

// appendIndexField encodes a 32-bit size or index as fixed32, two's
// complement for negatives (the -1 unknown sentinel in particular).
func appendIndexField(b []byte, num protowire.Number, v int32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, uint32(v))
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendStringField(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendMessageField(b []byte, num protowire.Number, body []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, body)
}

func appendRef(b []byte, r *cfg.CodeReference) []byte {
	b = appendVarintField(b, refFieldTarget, uint64(uint32(r.Target)))
	b = appendVarintField(b, refFieldOperand, uint64(uint32(r.Operand)))
	b = appendVarintField(b, refFieldLocation, uint64(uint32(r.Location)))
	b = appendFixed64Field(b, refFieldAddr, r.Addr)
	b = appendFixed64Field(b, refFieldMask, r.Mask)
	b = appendStringField(b, refFieldName, r.Name)
	b = appendFixed64Field(b, refFieldDataAddr, r.DataAddr)
	b = appendFixed64Field(b, refFieldBlockAddr, r.BlockAddr)
	b = appendIndexField(b, refFieldStmtIdx, r.StmtIdx)
	b = appendIndexField(b, refFieldOperandIdx, r.OperandIdx)
	b = appendVarintField(b, refFieldKind, uint64(uint32(r.Kind)))
	return append(b, r.Unrecognized...)
}

func appendInstruction(b []byte, ins *cfg.Instruction) []byte {
	b = appendFixed64Field(b, insFieldAddr, ins.Addr)
	b = appendBytesField(b, insFieldBytes, ins.Bytes)
	for i := range ins.Refs {
		b = appendMessageField(b, insFieldRef, appendRef(nil, &ins.Refs[i]))
	}
	b = appendBoolField(b, insFieldLocalNoReturn, ins.LocalNoReturn)
	return append(b, ins.Unrecognized...)
}

func appendBlock(b []byte, blk *cfg.Block) []byte {
	b = appendFixed64Field(b, blockFieldAddr, blk.Addr)
	b = appendIndexField(b, blockFieldSize, blk.Size)
	b = appendBytesField(b, blockFieldBytes, blk.Bytes)
	for i := range blk.Instructions {
		b = appendMessageField(b, blockFieldInstruction, appendInstruction(nil, &blk.Instructions[i]))
	}
	return append(b, blk.Unrecognized...)
}

func appendFunction(b []byte, f *cfg.ExternalFunction) []byte {
	b = appendStringField(b, funcFieldName, f.Name)
	b = appendFixed64Field(b, funcFieldAddr, f.Addr)
	b = appendVarintField(b, funcFieldConvention, uint64(uint32(f.Convention)))
	b = appendBoolField(b, funcFieldHasReturn, f.HasReturn)
	b = appendBoolField(b, funcFieldNoReturn, f.NoReturn)
	b = appendIndexField(b, funcFieldArgCount, f.ArgCount)
	b = appendBoolField(b, funcFieldIsWeak, f.IsWeak)
	b = appendStringField(b, funcFieldPrototype, f.Prototype)
	b = appendBoolField(b, funcFieldThreadLocal, f.IsThreadLocal)
	return append(b, f.Unrecognized...)
}

func appendVariable(b []byte, v *cfg.ExternalVariable) []byte {
	b = appendStringField(b, varFieldName, v.Name)
	b = appendFixed64Field(b, varFieldAddr, v.Addr)
	b = appendIndexField(b, varFieldSize, v.Size)
	b = appendBoolField(b, varFieldIsWeak, v.IsWeak)
	b = appendBoolField(b, varFieldThreadLocal, v.IsThreadLocal)
	return append(b, v.Unrecognized...)
}

func appendEdge(b []byte, e *cfg.Edge) []byte {
	b = appendFixed64Field(b, edgeFieldSrc, e.Src)
	b = appendFixed64Field(b, edgeFieldDst, e.Dst)
	b = appendVarintField(b, edgeFieldKind, uint64(uint32(e.Kind)))
	b = appendBoolField(b, edgeFieldIsOutside, e.IsOutside)
	b = appendFixed64Field(b, edgeFieldInsAddr, e.InsAddr)
	b = appendIndexField(b, edgeFieldStmtIdx, e.StmtIdx)
	for _, k := range e.PayloadKeys() {
		var entry []byte
		entry = appendStringField(entry, payloadFieldKey, k)
		entry = appendBytesField(entry, payloadFieldValue, e.Payload[k])
		b = appendMessageField(b, edgeFieldPayload, entry)
	}
	return append(b, e.Unrecognized...)
}

func appendGraph(b []byte, g *cfg.BlockGraph) []byte {
	for _, e := range g.Edges() {
		b = appendMessageField(b, graphFieldEdge, appendEdge(nil, e))
	}
	return append(b, g.Unrecognized...)
}

// EncodeGraph serializes a graph. Edges are emitted in identity-key order,
// so the output is deterministic for a given edge set.
func EncodeGraph(g *cfg.BlockGraph) []byte {
	return appendGraph(nil, g)
}

// EncodeProgram serializes a program container. Entity tables are emitted
// in their stored order; call Program.SortEntities first for output that is
// independent of discovery order.
func EncodeProgram(p *cfg.Program) []byte {
	var b []byte
	b = appendStringField(b, programFieldArch, p.Arch)
	for i := range p.Blocks {
		b = appendMessageField(b, programFieldBlock, appendBlock(nil, &p.Blocks[i]))
	}
	for i := range p.Functions {
		b = appendMessageField(b, programFieldFunction, appendFunction(nil, &p.Functions[i]))
	}
	for i := range p.Variables {
		b = appendMessageField(b, programFieldVariable, appendVariable(nil, &p.Variables[i]))
	}
	if p.Graph != nil && (p.Graph.Len() > 0 || len(p.Graph.Unrecognized) > 0) {
		b = appendMessageField(b, programFieldGraph, appendGraph(nil, p.Graph))
	}
	return append(b, p.Unrecognized...)
}
