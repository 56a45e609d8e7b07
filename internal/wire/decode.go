package wire

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"cfgpack/internal/cfg"
)

// Decoding is strict about structure (truncated or mis-typed bytes are
// ErrMalformed) and lenient about content: unknown field numbers and enum
// values never fail, they are preserved and reported as advisories. No
// validation runs here; partially-formed graphs decode fine and can be
// completed before an explicit Validate call.

func malformedf(offset int, format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d", ErrMalformed, fmt.Sprintf(format, args...), offset)
}

func readVarint(b []byte, pos *int, base int, typ protowire.Type) (uint64, error) {
	if typ != protowire.VarintType {
		return 0, malformedf(base+*pos, "expected varint, got wire type %d", typ)
	}
	v, n := protowire.ConsumeVarint(b[*pos:])
	if n < 0 {
		return 0, malformedf(base+*pos, "truncated varint")
	}
	*pos += n
	return v, nil
}

func readFixed64(b []byte, pos *int, base int, typ protowire.Type) (uint64, error) {
	if typ != protowire.Fixed64Type {
		return 0, malformedf(base+*pos, "expected fixed64, got wire type %d", typ)
	}
	v, n := protowire.ConsumeFixed64(b[*pos:])
	if n < 0 {
		return 0, malformedf(base+*pos, "truncated fixed64")
	}
	*pos += n
	return v, nil
}

func readIndex(b []byte, pos *int, base int, typ protowire.Type) (int32, error) {
	if typ != protowire.Fixed32Type {
		return 0, malformedf(base+*pos, "expected fixed32, got wire type %d", typ)
	}
	v, n := protowire.ConsumeFixed32(b[*pos:])
	if n < 0 {
		return 0, malformedf(base+*pos, "truncated fixed32")
	}
	*pos += n
	return int32(v), nil
}

// readBytes returns the value sub-slice and the absolute offset of its
// first byte, for nested decoding.
func readBytes(b []byte, pos *int, base int, typ protowire.Type) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, malformedf(base+*pos, "expected length-prefixed bytes, got wire type %d", typ)
	}
	v, n := protowire.ConsumeBytes(b[*pos:])
	if n < 0 {
		return nil, 0, malformedf(base+*pos, "truncated length-prefixed field")
	}
	valOff := base + *pos + (n - len(v))
	*pos += n
	return v, valOff, nil
}

// keepUnknown preserves one unrecognized field's raw bytes and records the
// advisory.
func keepUnknown(b []byte, pos *int, base, fieldStart int, num protowire.Number, typ protowire.Type, record string, dst *[]byte, d *diags) error {
	n := protowire.ConsumeFieldValue(num, typ, b[*pos:])
	if n < 0 {
		return malformedf(base+*pos, "truncated field %d", num)
	}
	*pos += n
	*dst = append(*dst, b[fieldStart:*pos]...)
	d.addf(base+fieldStart, DiagUnknownField, "%s: unknown field %d preserved", record, num)
	return nil
}

func checkEnum(d *diags, offset int, record, field string, known bool, raw uint64) {
	// Enums are 32-bit on the wire; a varint beyond that range cannot
	// round-trip and must never pass as a named value.
	if raw > math.MaxUint32 {
		d.addf(offset, DiagUnknownEnum, "%s: %s value %d exceeds 32-bit enum range, truncated", record, field, raw)
		return
	}
	if !known {
		d.addf(offset, DiagUnknownEnum, "%s: %s value %d not mapped, kept as-is", record, field, raw)
	}
}

func decodeRef(b []byte, base int, d *diags) (cfg.CodeReference, error) {
	var r cfg.CodeReference
	pos := 0
	for pos < len(b) {
		num, typ, n := protowire.ConsumeTag(b[pos:])
		if n < 0 {
			return r, malformedf(base+pos, "bad tag")
		}
		fieldStart := pos
		pos += n
		valOff := base + pos
		switch num {
		case refFieldTarget:
			v, err := readVarint(b, &pos, base, typ)
			if err != nil {
				return r, err
			}
			r.Target = cfg.TargetType(int32(v))
			checkEnum(d, valOff, "CodeReference", "target_type", r.Target.Known(), v)
		case refFieldOperand:
			v, err := readVarint(b, &pos, base, typ)
			if err != nil {
				return r, err
			}
			r.Operand = cfg.OperandType(int32(v))
			checkEnum(d, valOff, "CodeReference", "operand_type", r.Operand.Known(), v)
		case refFieldLocation:
			v, err := readVarint(b, &pos, base, typ)
			if err != nil {
				return r, err
			}
			r.Location = cfg.RefLocation(int32(v))
			checkEnum(d, valOff, "CodeReference", "location", r.Location.Known(), v)
		case refFieldAddr:
			v, err := readFixed64(b, &pos, base, typ)
			if err != nil {
				return r, err
			}
			r.Addr = v
		case refFieldMask:
			v, err := readFixed64(b, &pos, base, typ)
			if err != nil {
				return r, err
			}
			r.Mask = v
		case refFieldName:
			v, _, err := readBytes(b, &pos, base, typ)
			if err != nil {
				return r, err
			}
			r.Name = string(v)
		case refFieldDataAddr:
			v, err := readFixed64(b, &pos, base, typ)
			if err != nil {
				return r, err
			}
			r.DataAddr = v
		case refFieldBlockAddr:
			v, err := readFixed64(b, &pos, base, typ)
			if err != nil {
				return r, err
			}
			r.BlockAddr = v
		case refFieldStmtIdx:
			v, err := readIndex(b, &pos, base, typ)
			if err != nil {
				return r, err
			}
			r.StmtIdx = v
		case refFieldOperandIdx:
			v, err := readIndex(b, &pos, base, typ)
			if err != nil {
				return r, err
			}
			r.OperandIdx = v
		case refFieldKind:
			v, err := readVarint(b, &pos, base, typ)
			if err != nil {
				return r, err
			}
			r.Kind = cfg.ReferenceKind(int32(v))
			checkEnum(d, valOff, "CodeReference", "reference_kind", r.Kind.Known(), v)
		default:
			if err := keepUnknown(b, &pos, base, fieldStart, num, typ, "CodeReference", &r.Unrecognized, d); err != nil {
				return r, err
			}
		}
	}
	return r, nil
}

func decodeInstruction(b []byte, base int, d *diags) (cfg.Instruction, error) {
	var ins cfg.Instruction
	pos := 0
	for pos < len(b) {
		num, typ, n := protowire.ConsumeTag(b[pos:])
		if n < 0 {
			return ins, malformedf(base+pos, "bad tag")
		}
		fieldStart := pos
		pos += n
		switch num {
		case insFieldAddr:
			v, err := readFixed64(b, &pos, base, typ)
			if err != nil {
				return ins, err
			}
			ins.Addr = v
		case insFieldBytes:
			v, _, err := readBytes(b, &pos, base, typ)
			if err != nil {
				return ins, err
			}
			ins.Bytes = append([]byte(nil), v...)
		case insFieldRef:
			v, off, err := readBytes(b, &pos, base, typ)
			if err != nil {
				return ins, err
			}
			r, err := decodeRef(v, off, d)
			if err != nil {
				return ins, err
			}
			ins.Refs = append(ins.Refs, r)
		case insFieldLocalNoReturn:
			v, err := readVarint(b, &pos, base, typ)
			if err != nil {
				return ins, err
			}
			ins.LocalNoReturn = v != 0
		default:
			if err := keepUnknown(b, &pos, base, fieldStart, num, typ, "Instruction", &ins.Unrecognized, d); err != nil {
				return ins, err
			}
		}
	}
	return ins, nil
}

func decodeBlock(b []byte, base int, d *diags) (cfg.Block, error) {
	var blk cfg.Block
	pos := 0
	for pos < len(b) {
		num, typ, n := protowire.ConsumeTag(b[pos:])
		if n < 0 {
			return blk, malformedf(base+pos, "bad tag")
		}
		fieldStart := pos
		pos += n
		switch num {
		case blockFieldAddr:
			v, err := readFixed64(b, &pos, base, typ)
			if err != nil {
				return blk, err
			}
			blk.Addr = v
		case blockFieldSize:
			v, err := readIndex(b, &pos, base, typ)
			if err != nil {
				return blk, err
			}
			blk.Size = v
		case blockFieldBytes:
			v, _, err := readBytes(b, &pos, base, typ)
			if err != nil {
				return blk, err
			}
			blk.Bytes = append([]byte(nil), v...)
		case blockFieldInstruction:
			v, off, err := readBytes(b, &pos, base, typ)
			if err != nil {
				return blk, err
			}
			ins, err := decodeInstruction(v, off, d)
			if err != nil {
				return blk, err
			}
			blk.Instructions = append(blk.Instructions, ins)
		default:
			if err := keepUnknown(b, &pos, base, fieldStart, num, typ, "Block", &blk.Unrecognized, d); err != nil {
				return blk, err
			}
		}
	}
	if _, ok := blk.End(); !ok && blk.Size > 0 {
		return blk, fmt.Errorf("%w: block 0x%x size %d extends past the address space", ErrAddressOverflow, blk.Addr, blk.Size)
	}
	return blk, nil
}

func decodeFunction(b []byte, base int, d *diags) (cfg.ExternalFunction, error) {
	var f cfg.ExternalFunction
	pos := 0
	for pos < len(b) {
		num, typ, n := protowire.ConsumeTag(b[pos:])
		if n < 0 {
			return f, malformedf(base+pos, "bad tag")
		}
		fieldStart := pos
		pos += n
		valOff := base + pos
		switch num {
		case funcFieldName:
			v, _, err := readBytes(b, &pos, base, typ)
			if err != nil {
				return f, err
			}
			f.Name = string(v)
		case funcFieldAddr:
			v, err := readFixed64(b, &pos, base, typ)
			if err != nil {
				return f, err
			}
			f.Addr = v
		case funcFieldConvention:
			v, err := readVarint(b, &pos, base, typ)
			if err != nil {
				return f, err
			}
			f.Convention = cfg.CallingConvention(int32(v))
			checkEnum(d, valOff, "ExternalFunction", "calling_convention", f.Convention.Known(), v)
		case funcFieldHasReturn:
			v, err := readVarint(b, &pos, base, typ)
			if err != nil {
				return f, err
			}
			f.HasReturn = v != 0
		case funcFieldNoReturn:
			v, err := readVarint(b, &pos, base, typ)
			if err != nil {
				return f, err
			}
			f.NoReturn = v != 0
		case funcFieldArgCount:
			v, err := readIndex(b, &pos, base, typ)
			if err != nil {
				return f, err
			}
			f.ArgCount = v
		case funcFieldIsWeak:
			v, err := readVarint(b, &pos, base, typ)
			if err != nil {
				return f, err
			}
			f.IsWeak = v != 0
		case funcFieldPrototype:
			v, _, err := readBytes(b, &pos, base, typ)
			if err != nil {
				return f, err
			}
			f.Prototype = string(v)
		case funcFieldThreadLocal:
			v, err := readVarint(b, &pos, base, typ)
			if err != nil {
				return f, err
			}
			f.IsThreadLocal = v != 0
		default:
			if err := keepUnknown(b, &pos, base, fieldStart, num, typ, "ExternalFunction", &f.Unrecognized, d); err != nil {
				return f, err
			}
		}
	}
	return f, nil
}

func decodeVariable(b []byte, base int, d *diags) (cfg.ExternalVariable, error) {
	var v cfg.ExternalVariable
	pos := 0
	for pos < len(b) {
		num, typ, n := protowire.ConsumeTag(b[pos:])
		if n < 0 {
			return v, malformedf(base+pos, "bad tag")
		}
		fieldStart := pos
		pos += n
		switch num {
		case varFieldName:
			s, _, err := readBytes(b, &pos, base, typ)
			if err != nil {
				return v, err
			}
			v.Name = string(s)
		case varFieldAddr:
			a, err := readFixed64(b, &pos, base, typ)
			if err != nil {
				return v, err
			}
			v.Addr = a
		case varFieldSize:
			s, err := readIndex(b, &pos, base, typ)
			if err != nil {
				return v, err
			}
			v.Size = s
		case varFieldIsWeak:
			f, err := readVarint(b, &pos, base, typ)
			if err != nil {
				return v, err
			}
			v.IsWeak = f != 0
		case varFieldThreadLocal:
			f, err := readVarint(b, &pos, base, typ)
			if err != nil {
				return v, err
			}
			v.IsThreadLocal = f != 0
		default:
			if err := keepUnknown(b, &pos, base, fieldStart, num, typ, "ExternalVariable", &v.Unrecognized, d); err != nil {
				return v, err
			}
		}
	}
	return v, nil
}

func decodePayloadEntry(b []byte, base int, d *diags) (string, []byte, error) {
	var key string
	var val []byte
	pos := 0
	for pos < len(b) {
		num, typ, n := protowire.ConsumeTag(b[pos:])
		if n < 0 {
			return "", nil, malformedf(base+pos, "bad tag")
		}
		fieldStart := pos
		pos += n
		switch num {
		case payloadFieldKey:
			v, _, err := readBytes(b, &pos, base, typ)
			if err != nil {
				return "", nil, err
			}
			key = string(v)
		case payloadFieldValue:
			v, _, err := readBytes(b, &pos, base, typ)
			if err != nil {
				return "", nil, err
			}
			val = append([]byte(nil), v...)
		default:
			// Payload entries are a closed key/value pair; the entry
			// bytes are regenerated from the map on encode, so foreign
			// fields here cannot be preserved, only reported.
			n := protowire.ConsumeFieldValue(num, typ, b[pos:])
			if n < 0 {
				return "", nil, malformedf(base+pos, "truncated field %d", num)
			}
			pos += n
			d.addf(base+fieldStart, DiagUnknownField, "PayloadEntry: unknown field %d skipped", num)
		}
	}
	return key, val, nil
}

func decodeEdge(b []byte, base int, d *diags) (*cfg.Edge, error) {
	e := &cfg.Edge{}
	pos := 0
	for pos < len(b) {
		num, typ, n := protowire.ConsumeTag(b[pos:])
		if n < 0 {
			return nil, malformedf(base+pos, "bad tag")
		}
		fieldStart := pos
		pos += n
		valOff := base + pos
		switch num {
		case edgeFieldSrc:
			v, err := readFixed64(b, &pos, base, typ)
			if err != nil {
				return nil, err
			}
			e.Src = v
		case edgeFieldDst:
			v, err := readFixed64(b, &pos, base, typ)
			if err != nil {
				return nil, err
			}
			e.Dst = v
		case edgeFieldKind:
			v, err := readVarint(b, &pos, base, typ)
			if err != nil {
				return nil, err
			}
			e.Kind = cfg.JumpKind(int32(v))
			checkEnum(d, valOff, "Edge", "jump_kind", e.Kind.Known(), v)
		case edgeFieldIsOutside:
			v, err := readVarint(b, &pos, base, typ)
			if err != nil {
				return nil, err
			}
			e.IsOutside = v != 0
		case edgeFieldInsAddr:
			v, err := readFixed64(b, &pos, base, typ)
			if err != nil {
				return nil, err
			}
			e.InsAddr = v
		case edgeFieldStmtIdx:
			v, err := readIndex(b, &pos, base, typ)
			if err != nil {
				return nil, err
			}
			e.StmtIdx = v
		case edgeFieldPayload:
			v, off, err := readBytes(b, &pos, base, typ)
			if err != nil {
				return nil, err
			}
			key, val, err := decodePayloadEntry(v, off, d)
			if err != nil {
				return nil, err
			}
			if e.Payload == nil {
				e.Payload = make(map[string][]byte)
			}
			e.Payload[key] = val
		default:
			if err := keepUnknown(b, &pos, base, fieldStart, num, typ, "Edge", &e.Unrecognized, d); err != nil {
				return nil, err
			}
		}
	}
	return e, nil
}

func decodeGraph(b []byte, base int, d *diags) (*cfg.BlockGraph, error) {
	g := cfg.NewBlockGraph()
	pos := 0
	for pos < len(b) {
		num, typ, n := protowire.ConsumeTag(b[pos:])
		if n < 0 {
			return nil, malformedf(base+pos, "bad tag")
		}
		fieldStart := pos
		pos += n
		switch num {
		case graphFieldEdge:
			v, off, err := readBytes(b, &pos, base, typ)
			if err != nil {
				return nil, err
			}
			e, err := decodeEdge(v, off, d)
			if err != nil {
				return nil, err
			}
			if prev := g.Add(e); prev != nil {
				d.addf(off, DiagDuplicateEdge, "duplicate edge 0x%x -> 0x%x, later record wins", e.Src, e.Dst)
			}
		default:
			if err := keepUnknown(b, &pos, base, fieldStart, num, typ, "BlockGraph", &g.Unrecognized, d); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// DecodeGraph decodes one BlockGraph record. Advisories report reduced
// fidelity (unknown enums/fields, duplicate edges); the error is non-nil
// only for structurally invalid input.
func DecodeGraph(b []byte) (*cfg.BlockGraph, []Diag, error) {
	var d diags
	g, err := decodeGraph(b, 0, &d)
	if err != nil {
		return nil, d.items, err
	}
	return g, d.items, nil
}

// DecodeProgram decodes one Program record. The returned program always has
// a non-nil (possibly empty) graph.
func DecodeProgram(b []byte) (*cfg.Program, []Diag, error) {
	var d diags
	p := &cfg.Program{Graph: cfg.NewBlockGraph()}
	pos := 0
	for pos < len(b) {
		num, typ, n := protowire.ConsumeTag(b[pos:])
		if n < 0 {
			return nil, d.items, malformedf(pos, "bad tag")
		}
		fieldStart := pos
		pos += n
		switch num {
		case programFieldArch:
			v, _, err := readBytes(b, &pos, 0, typ)
			if err != nil {
				return nil, d.items, err
			}
			p.Arch = string(v)
		case programFieldBlock:
			v, off, err := readBytes(b, &pos, 0, typ)
			if err != nil {
				return nil, d.items, err
			}
			blk, err := decodeBlock(v, off, &d)
			if err != nil {
				return nil, d.items, err
			}
			p.Blocks = append(p.Blocks, blk)
		case programFieldFunction:
			v, off, err := readBytes(b, &pos, 0, typ)
			if err != nil {
				return nil, d.items, err
			}
			f, err := decodeFunction(v, off, &d)
			if err != nil {
				return nil, d.items, err
			}
			p.Functions = append(p.Functions, f)
		case programFieldVariable:
			v, off, err := readBytes(b, &pos, 0, typ)
			if err != nil {
				return nil, d.items, err
			}
			ev, err := decodeVariable(v, off, &d)
			if err != nil {
				return nil, d.items, err
			}
			p.Variables = append(p.Variables, ev)
		case programFieldGraph:
			v, off, err := readBytes(b, &pos, 0, typ)
			if err != nil {
				return nil, d.items, err
			}
			g, err := decodeGraph(v, off, &d)
			if err != nil {
				return nil, d.items, err
			}
			p.Graph = g
		default:
			if err := keepUnknown(b, &pos, 0, fieldStart, num, typ, "Program", &p.Unrecognized, &d); err != nil {
				return nil, d.items, err
			}
		}
	}
	return p, d.items, nil
}
