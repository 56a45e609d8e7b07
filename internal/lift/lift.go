// Package lift recovers basic blocks and control-flow edges from raw ARM64
// code, producing the cfg interchange entities. It is a reference producer:
// enough of a lifting engine to exercise the model and codec end to end,
// not a general disassembler.
package lift

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/arch/arm64/arm64asm"

	"cfgpack/internal/cfg"
)

var ErrEmptyRegion = errors.New("lift: empty code region")

// Region is one function-sized span of code to lift.
type Region struct {
	Name string
	Base uint64 // virtual address of Data[0]
	Data []byte
}

// inst is one decoded instruction during lifting.
type inst struct {
	addr uint64
	raw  uint32
	ok   bool // arm64asm accepted the encoding
}

// Lift recovers the blocks and edges of one region, treated as a single
// function. The region's byte length is truncated to whole instructions.
//
// Block recovery is three passes: find leaders (entry, branch targets,
// instructions after terminators), partition instructions by leader, then
// classify each block's outgoing transfer into edges:
//
//	B            -> Boring (IsOutside when the target leaves the region)
//	B.cond etc.  -> Boring to target + Boring fall-through
//	BL           -> Call + FakeReturn fall-through
//	BLR          -> FakeReturn fall-through only (target unresolved)
//	RET          -> Return, IsOutside
//	SVC          -> Syscall fall-through
//	BRK          -> SigTRAP, no successor
func Lift(r Region) (*cfg.Program, error) {
	n := len(r.Data) / 4
	if n == 0 {
		return nil, fmt.Errorf("%w at 0x%x", ErrEmptyRegion, r.Base)
	}
	end := r.Base + uint64(4*n)

	insts := make([]inst, n)
	addrToIdx := make(map[uint64]int, n)
	for i := 0; i < n; i++ {
		off := i * 4
		raw := binary.LittleEndian.Uint32(r.Data[off : off+4])
		addr := r.Base + uint64(off)
		_, err := arm64asm.Decode(r.Data[off : off+4])
		insts[i] = inst{addr: addr, raw: raw, ok: err == nil}
		addrToIdx[addr] = i
	}

	// Pass 1: leaders.
	leaders := map[int]bool{0: true}
	for i, in := range insts {
		term := DecodeTerminator(in.raw, in.addr)
		if term.Class == TermNone {
			continue
		}
		if i+1 < n {
			leaders[i+1] = true
		}
		switch term.Class {
		case TermJump, TermCondJump:
			if idx, ok := addrToIdx[term.Target]; ok {
				leaders[idx] = true
			}
		}
	}
	sorted := make([]int, 0, len(leaders))
	for idx := range leaders {
		sorted = append(sorted, idx)
	}
	sort.Ints(sorted)

	// Pass 2: partition into blocks.
	p := &cfg.Program{Arch: "arm64", Graph: cfg.NewBlockGraph()}
	blockStart := make(map[int]uint64, len(sorted)) // leader index -> block addr
	for i, start := range sorted {
		stop := n
		if i+1 < len(sorted) {
			stop = sorted[i+1]
		}
		blk := buildBlock(r, insts[start:stop], r.Base, end)
		blockStart[start] = blk.Addr
		p.Blocks = append(p.Blocks, blk)
	}

	// Pass 3: edges.
	for i, start := range sorted {
		stop := n
		if i+1 < len(sorted) {
			stop = sorted[i+1]
		}
		addEdges(p.Graph, insts, start, stop, blockStart[start], r.Base, end)
	}
	return p, nil
}

func buildBlock(r Region, span []inst, base, end uint64) cfg.Block {
	first := span[0]
	blk := cfg.Block{
		Addr: first.addr,
		Size: int32(4 * len(span)),
	}
	off := first.addr - r.Base
	blk.Bytes = append([]byte(nil), r.Data[off:off+uint64(4*len(span))]...)

	for _, in := range span {
		ci := cfg.Instruction{
			Addr:  in.addr,
			Bytes: append([]byte(nil), r.Data[in.addr-r.Base:in.addr-r.Base+4]...),
		}
		term := DecodeTerminator(in.raw, in.addr)
		switch term.Class {
		case TermJump, TermCondJump, TermCall:
			loc := cfg.LocInternal
			if term.Target < base || term.Target >= end {
				loc = cfg.LocExternal
			}
			ci.Refs = append(ci.Refs, cfg.CodeReference{
				Target:     cfg.TargetCode,
				Operand:    cfg.OperandControlFlow,
				Location:   loc,
				Kind:       cfg.RefOffset,
				Addr:       term.Target,
				BlockAddr:  blk.Addr,
				StmtIdx:    cfg.IndexUnknown,
				OperandIdx: 0,
			})
		}
		blk.Instructions = append(blk.Instructions, ci)
	}
	return blk
}

func addEdges(g *cfg.BlockGraph, insts []inst, start, stop int, blockAddr, base, end uint64) {
	last := insts[stop-1]
	term := DecodeTerminator(last.raw, last.addr)
	next := last.addr + 4
	hasNext := stop < len(insts)

	mk := func(dst uint64, kind cfg.JumpKind, outside bool) {
		g.Add(&cfg.Edge{
			Src:       blockAddr,
			Dst:       dst,
			Kind:      kind,
			IsOutside: outside,
			InsAddr:   last.addr,
			StmtIdx:   cfg.IndexUnknown,
		})
	}
	outside := func(dst uint64) bool { return dst < base || dst >= end }

	switch term.Class {
	case TermNone:
		if !hasNext {
			return
		}
		// An encoding arm64asm rejects still falls through, but the edge
		// is classified NoDecode so consumers can see the gap.
		if last.ok {
			mk(next, cfg.JumpBoring, false)
		} else {
			mk(next, cfg.JumpNoDecode, false)
		}
	case TermRet:
		mk(0, cfg.JumpReturn, true)
	case TermJump:
		mk(term.Target, cfg.JumpBoring, outside(term.Target))
	case TermCondJump:
		mk(term.Target, cfg.JumpBoring, outside(term.Target))
		if hasNext {
			mk(next, cfg.JumpBoring, false)
		}
	case TermCall:
		mk(term.Target, cfg.JumpCall, outside(term.Target))
		if hasNext {
			mk(next, cfg.JumpFakeReturn, false)
		}
	case TermIndCall:
		if hasNext {
			mk(next, cfg.JumpFakeReturn, false)
		}
	case TermSyscall:
		if hasNext {
			mk(next, cfg.JumpSyscall, false)
		}
	case TermTrap:
		mk(last.addr, cfg.JumpSigTRAP, false)
	}
}

// LiftAll lifts each region in its own goroutine (single writer per
// in-progress graph) and combines the completed results through explicit
// merges. The returned program holds the union graph and all blocks;
// conflicts surface divergent re-analysis of overlapping regions.
func LiftAll(regions []Region) (*cfg.Program, []cfg.Conflict, error) {
	type result struct {
		p   *cfg.Program
		err error
	}
	results := make([]result, len(regions))
	done := make(chan int)
	for i, r := range regions {
		go func(i int, r Region) {
			p, err := Lift(r)
			results[i] = result{p: p, err: err}
			done <- i
		}(i, r)
	}
	for range regions {
		<-done
	}

	out := &cfg.Program{Arch: "arm64", Graph: cfg.NewBlockGraph()}
	var conflicts []cfg.Conflict
	for _, res := range results {
		if res.err != nil {
			return nil, nil, res.err
		}
		out.Blocks = append(out.Blocks, res.p.Blocks...)
		var cs []cfg.Conflict
		out.Graph, cs = cfg.Merge(out.Graph, res.p.Graph)
		conflicts = append(conflicts, cs...)
	}
	out.SortEntities()
	return out, conflicts, nil
}
