package main

import (
	"flag"
	"fmt"
	"os"

	"cfgpack/internal/cfg"
)

func cmdMerge(args []string) error {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	out := fs.String("out", "", "merged CFG output file")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("--out is required")
	}
	inputs := fs.Args()
	if len(inputs) < 2 {
		return fmt.Errorf("need at least two input files")
	}

	merged := &cfg.Program{}
	var graphs []*cfg.BlockGraph
	for _, path := range inputs {
		p, diag, err := readProgram(path)
		if err != nil {
			return err
		}
		for _, d := range diag {
			fmt.Fprintf(os.Stderr, "advisory: %s: %s\n", path, d)
		}
		if merged.Arch == "" {
			merged.Arch = p.Arch
		} else if p.Arch != "" && p.Arch != merged.Arch {
			return fmt.Errorf("%s: arch %q does not match %q", path, p.Arch, merged.Arch)
		}
		merged.Blocks = append(merged.Blocks, p.Blocks...)
		merged.Functions = append(merged.Functions, p.Functions...)
		merged.Variables = append(merged.Variables, p.Variables...)
		graphs = append(graphs, p.Graph)
	}

	g, conflicts := cfg.MergeAll(graphs...)
	for _, c := range conflicts {
		fmt.Fprintf(os.Stderr, "conflict: %s\n", c)
	}
	merged.Graph = g
	if dropped := dedupEntities(merged); dropped > 0 {
		fmt.Fprintf(os.Stderr, "dropped %d duplicate entity records (later inputs win)\n", dropped)
	}
	merged.SortEntities()

	if err := writeProgram(*out, merged); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "merged %d files into %s (%d edges, %d conflicts)\n",
		len(inputs), *out, g.Len(), len(conflicts))
	return nil
}

// dedupEntities collapses entity records sharing an identity across merged
// inputs: blocks by address, symbols by name and address. The later record
// wins, matching edge merge order. Returns the number of records dropped.
func dedupEntities(p *cfg.Program) int {
	dropped := 0

	blockAt := make(map[uint64]int, len(p.Blocks))
	blocks := p.Blocks[:0]
	for _, blk := range p.Blocks {
		if i, ok := blockAt[blk.Addr]; ok {
			blocks[i] = blk
			dropped++
			continue
		}
		blockAt[blk.Addr] = len(blocks)
		blocks = append(blocks, blk)
	}
	p.Blocks = blocks

	type symKey struct {
		name string
		addr uint64
	}
	funcAt := make(map[symKey]int, len(p.Functions))
	funcs := p.Functions[:0]
	for _, f := range p.Functions {
		k := symKey{f.Name, f.Addr}
		if i, ok := funcAt[k]; ok {
			funcs[i] = f
			dropped++
			continue
		}
		funcAt[k] = len(funcs)
		funcs = append(funcs, f)
	}
	p.Functions = funcs

	varAt := make(map[symKey]int, len(p.Variables))
	vars := p.Variables[:0]
	for _, v := range p.Variables {
		k := symKey{v.Name, v.Addr}
		if i, ok := varAt[k]; ok {
			vars[i] = v
			dropped++
			continue
		}
		varAt[k] = len(vars)
		vars = append(vars, v)
	}
	p.Variables = vars

	return dropped
}
