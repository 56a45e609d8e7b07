package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"cfgpack/internal/cfg"
	"cfgpack/internal/wire"
)

func cmdInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	in := fs.String("in", "", "encoded CFG input file")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("--in is required")
	}

	p, diag, err := readProgram(*in)
	if err != nil {
		return err
	}
	for _, d := range diag {
		fmt.Fprintf(os.Stderr, "advisory: %s\n", d)
	}

	if p.Arch != "" {
		fmt.Printf("arch:       %s\n", p.Arch)
	}
	fmt.Printf("blocks:     %d\n", len(p.Blocks))
	fmt.Printf("functions:  %d\n", len(p.Functions))
	fmt.Printf("variables:  %d\n", len(p.Variables))
	fmt.Printf("edges:      %d\n", p.Graph.Len())

	kinds := make(map[cfg.JumpKind]int)
	var order []cfg.JumpKind
	for _, e := range p.Graph.Edges() {
		if kinds[e.Kind] == 0 {
			order = append(order, e.Kind)
		}
		kinds[e.Kind]++
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	for _, k := range order {
		fmt.Printf("  %-16s %d\n", k, kinds[k])
	}
	return nil
}

// readProgram decodes one encoded CFG file.
func readProgram(path string) (*cfg.Program, []wire.Diag, error) {
	enc, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	p, diag, err := wire.DecodeProgram(enc)
	if err != nil {
		return nil, diag, fmt.Errorf("%s: %w", path, err)
	}
	return p, diag, nil
}

// writeProgram encodes a program to a file.
func writeProgram(path string, p *cfg.Program) error {
	if err := os.WriteFile(path, wire.EncodeProgram(p), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
