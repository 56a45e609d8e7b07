package main

import (
	"flag"
	"fmt"
	"os"

	"cfgpack/internal/elfx"
	"cfgpack/internal/lift"
	"cfgpack/internal/store"
)

func cmdLift(args []string) error {
	fs := flag.NewFlagSet("lift", flag.ExitOnError)
	lib := fs.String("lib", "", "path to ARM64 ELF binary")
	outDir := fs.String("out", "", "output store directory")
	funcName := fs.String("func", "", "lift only this symbol")
	cacheSize := fs.Int("cache", 64, "decoded program cache size")
	merged := fs.String("merged", "", "also write a whole-binary merged CFG to this file")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *lib == "" {
		return fmt.Errorf("--lib is required")
	}
	if *outDir == "" {
		return fmt.Errorf("--out is required")
	}

	ef, err := elfx.Open(*lib)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer ef.Close()

	syms, err := ef.Functions()
	if err != nil {
		return fmt.Errorf("symbols: %w", err)
	}
	if *funcName != "" {
		var match []elfx.FuncSym
		for _, s := range syms {
			if s.Name == *funcName {
				match = append(match, s)
			}
		}
		if len(match) == 0 {
			return fmt.Errorf("%w: %s", elfx.ErrNoSymbol, *funcName)
		}
		syms = match
	}
	if len(syms) == 0 {
		return fmt.Errorf("no function symbols in %s", *lib)
	}

	st, err := store.Open(*outDir, *cacheSize)
	if err != nil {
		return err
	}

	var regions []lift.Region
	var lifted, failed int
	for _, sym := range syms {
		data, err := ef.ReadBytesAtVA(sym.Addr, int(sym.Size))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", sym.Name, err)
			failed++
			continue
		}
		r := lift.Region{Name: sym.Name, Base: sym.Addr, Data: data}
		p, err := lift.Lift(r)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: lift: %v\n", sym.Name, err)
			failed++
			continue
		}
		if err := st.Put(sym.Addr, p); err != nil {
			return err
		}
		regions = append(regions, r)
		lifted++
	}
	fmt.Fprintf(os.Stderr, "lifted %d functions (%d failed) into %s\n", lifted, failed, *outDir)

	if *merged != "" {
		p, conflicts, err := lift.LiftAll(regions)
		if err != nil {
			return fmt.Errorf("merged lift: %w", err)
		}
		for _, c := range conflicts {
			fmt.Fprintf(os.Stderr, "conflict: %s\n", c)
		}
		if err := writeProgram(*merged, p); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote merged CFG to %s (%d blocks, %d edges)\n",
			*merged, len(p.Blocks), p.Graph.Len())
	}
	return nil
}
