package cfg

// Instruction is one decoded-or-raw instruction inside a block.
type Instruction struct {
	Addr          uint64
	Bytes         []byte // raw encoding; non-empty for a well-formed instruction
	Refs          []CodeReference
	LocalNoReturn bool // this call site never returns, scoped to this block

	Unrecognized []byte
}

// Block is a basic block: a maximal straight-line instruction sequence with
// one entry and one exit. Instruction addresses are non-decreasing and lie
// within [Addr, Addr+Size).
type Block struct {
	Addr         uint64
	Size         int32
	Bytes        []byte // len(Bytes) == Size for a well-formed block
	Instructions []Instruction

	Unrecognized []byte
}

// End returns the first address past the block. The second return is false
// if Addr+Size wraps the address space.
func (b *Block) End() (uint64, bool) {
	if b.Size < 0 {
		return b.Addr, false
	}
	end := b.Addr + uint64(b.Size)
	return end, end >= b.Addr
}

// Contains reports whether addr lies within the block's extent.
func (b *Block) Contains(addr uint64) bool {
	end, ok := b.End()
	return ok && addr >= b.Addr && addr < end
}
