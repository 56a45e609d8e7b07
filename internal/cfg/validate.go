package cfg

import "fmt"

// Violation records one invariant failure found by validation.
type Violation struct {
	Entity string // "block", "instruction", "function", "variable", "edge"
	Addr   uint64
	Msg    string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s 0x%x: %s", v.Entity, v.Addr, v.Msg)
}

// Validate checks every invariant the data model promises and returns the
// full set of violations, never stopping at the first. It is a separate
// pass from decoding so that partially-formed programs can be decoded,
// completed incrementally, and validated when the caller chooses.
func Validate(p *Program) []Violation {
	var vs []Violation
	for i := range p.Blocks {
		vs = append(vs, ValidateBlock(&p.Blocks[i])...)
	}
	for i := range p.Functions {
		vs = append(vs, ValidateFunction(&p.Functions[i])...)
	}
	for i := range p.Variables {
		vs = append(vs, ValidateVariable(&p.Variables[i])...)
	}
	if p.Graph != nil {
		vs = append(vs, ValidateGraph(p.Graph)...)
	}
	return vs
}

// ValidateBlock checks one block and its instructions.
func ValidateBlock(b *Block) []Violation {
	var vs []Violation
	switch {
	case b.Size < 0:
		vs = append(vs, Violation{"block", b.Addr, fmt.Sprintf("negative size %d", b.Size)})
	case b.Size == 0:
		vs = append(vs, Violation{"block", b.Addr, "size is zero"})
	}
	if _, ok := b.End(); !ok && b.Size > 0 {
		vs = append(vs, Violation{"block", b.Addr, fmt.Sprintf("extent wraps address space (size %d)", b.Size)})
	}
	if b.Size >= 0 && len(b.Bytes) != int(b.Size) {
		vs = append(vs, Violation{"block", b.Addr, fmt.Sprintf("raw bytes length %d != size %d", len(b.Bytes), b.Size)})
	}

	var prev uint64
	var extent int
	for i := range b.Instructions {
		ins := &b.Instructions[i]
		if len(ins.Bytes) == 0 {
			vs = append(vs, Violation{"instruction", ins.Addr, "empty raw bytes"})
		}
		if !b.Contains(ins.Addr) {
			vs = append(vs, Violation{"instruction", ins.Addr, fmt.Sprintf("address outside block 0x%x+%d", b.Addr, b.Size)})
		}
		if i > 0 && ins.Addr < prev {
			vs = append(vs, Violation{"instruction", ins.Addr, fmt.Sprintf("address decreases within block (previous 0x%x)", prev)})
		}
		prev = ins.Addr
		extent += len(ins.Bytes)
		for j := range ins.Refs {
			vs = append(vs, validateRef(&ins.Refs[j], ins.Addr)...)
		}
	}
	if b.Size >= 0 && extent > int(b.Size) {
		vs = append(vs, Violation{"block", b.Addr, fmt.Sprintf("instruction extents total %d exceed size %d", extent, b.Size)})
	}
	return vs
}

func validateRef(r *CodeReference, insAddr uint64) []Violation {
	var vs []Violation
	if r.StmtIdx < IndexUnknown {
		vs = append(vs, Violation{"instruction", insAddr, fmt.Sprintf("reference statement index %d below unknown sentinel", r.StmtIdx)})
	}
	if r.OperandIdx < IndexUnknown {
		vs = append(vs, Violation{"instruction", insAddr, fmt.Sprintf("reference operand index %d below unknown sentinel", r.OperandIdx)})
	}
	return vs
}

// ValidateFunction checks one external function record.
func ValidateFunction(f *ExternalFunction) []Violation {
	var vs []Violation
	if f.Name == "" {
		vs = append(vs, Violation{"function", f.Addr, "empty name"})
	}
	if f.ArgCount < 0 {
		vs = append(vs, Violation{"function", f.Addr, fmt.Sprintf("negative argument count %d", f.ArgCount)})
	}
	if f.HasReturn && f.NoReturn {
		vs = append(vs, Violation{"function", f.Addr, "has_return and no_return both set"})
	}
	return vs
}

// ValidateVariable checks one external variable record.
func ValidateVariable(v *ExternalVariable) []Violation {
	if v.Size < 0 {
		return []Violation{{"variable", v.Addr, fmt.Sprintf("negative size %d", v.Size)}}
	}
	return nil
}

// ValidateGraph checks the edge set. Graphs built through Add/Merge are
// duplicate-free by construction; graphs decoded from foreign producers can
// still carry bad statement indices.
func ValidateGraph(g *BlockGraph) []Violation {
	var vs []Violation
	for _, e := range g.Edges() {
		if e.StmtIdx < IndexUnknown {
			vs = append(vs, Violation{"edge", e.Src, fmt.Sprintf("statement index %d below unknown sentinel", e.StmtIdx)})
		}
	}
	return vs
}
