package cfg

import "sort"

// Program bundles one recovered graph with the entity tables its edges and
// references join against by address. It is the unit the codec serializes
// and the store persists.
type Program struct {
	Arch      string // e.g. "arm64"; informational
	Blocks    []Block
	Functions []ExternalFunction
	Variables []ExternalVariable
	Graph     *BlockGraph

	Unrecognized []byte
}

// SortEntities orders the entity tables by address so that encoding is
// repeatable regardless of discovery order.
func (p *Program) SortEntities() {
	sort.Slice(p.Blocks, func(i, j int) bool { return p.Blocks[i].Addr < p.Blocks[j].Addr })
	sort.Slice(p.Functions, func(i, j int) bool { return p.Functions[i].Addr < p.Functions[j].Addr })
	sort.Slice(p.Variables, func(i, j int) bool { return p.Variables[i].Addr < p.Variables[j].Addr })
}

// Index provides address-keyed lookup over a Program's entity tables.
// Build once, read from any number of goroutines.
type Index struct {
	blocks    map[uint64]*Block
	functions map[uint64]*ExternalFunction
	variables map[uint64]*ExternalVariable
	sorted    []uint64 // block addresses, ascending
}

// BuildIndex indexes the program's tables. The index aliases the program's
// entities; it stays valid as long as the program is not reallocated.
func BuildIndex(p *Program) *Index {
	idx := &Index{
		blocks:    make(map[uint64]*Block, len(p.Blocks)),
		functions: make(map[uint64]*ExternalFunction, len(p.Functions)),
		variables: make(map[uint64]*ExternalVariable, len(p.Variables)),
	}
	for i := range p.Blocks {
		b := &p.Blocks[i]
		idx.blocks[b.Addr] = b
		idx.sorted = append(idx.sorted, b.Addr)
	}
	sort.Slice(idx.sorted, func(i, j int) bool { return idx.sorted[i] < idx.sorted[j] })
	for i := range p.Functions {
		idx.functions[p.Functions[i].Addr] = &p.Functions[i]
	}
	for i := range p.Variables {
		idx.variables[p.Variables[i].Addr] = &p.Variables[i]
	}
	return idx
}

// BlockAt returns the block starting at addr, or nil.
func (idx *Index) BlockAt(addr uint64) *Block { return idx.blocks[addr] }

// FunctionAt returns the external function at addr, or nil.
func (idx *Index) FunctionAt(addr uint64) *ExternalFunction { return idx.functions[addr] }

// VariableAt returns the external variable at addr, or nil.
func (idx *Index) VariableAt(addr uint64) *ExternalVariable { return idx.variables[addr] }

// BlockContaining returns the block whose extent covers addr, or nil.
func (idx *Index) BlockContaining(addr uint64) *Block {
	// Rightmost block starting at or below addr.
	i := sort.Search(len(idx.sorted), func(i int) bool { return idx.sorted[i] > addr })
	if i == 0 {
		return nil
	}
	b := idx.blocks[idx.sorted[i-1]]
	if b.Contains(addr) {
		return b
	}
	return nil
}
