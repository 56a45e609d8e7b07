package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"cfgpack/internal/render"
	"cfgpack/internal/store"
)

func cmdRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	in := fs.String("in", "", "encoded CFG input file")
	storeDir := fs.String("store", "", "CFG store directory (renders the call graph)")
	dotOut := fs.String("dot", "", "DOT output path (default stdout)")
	title := fs.String("title", "", "graph title")
	cacheSize := fs.Int("cache", 64, "decoded program cache size")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*in == "") == (*storeDir == "") {
		return fmt.Errorf("exactly one of --in or --store is required")
	}

	var dot string
	switch {
	case *in != "":
		p, diag, err := readProgram(*in)
		if err != nil {
			return err
		}
		for _, d := range diag {
			fmt.Fprintf(os.Stderr, "advisory: %s\n", d)
		}
		if *title == "" {
			*title = filepath.Base(*in)
		}
		dot = render.ProgramDOT(p, *title, render.Default)
		if dot == "" {
			return fmt.Errorf("%s: no edges to render", *in)
		}

	default:
		st, err := store.Open(*storeDir, *cacheSize)
		if err != nil {
			return err
		}
		addrs, err := st.Addresses()
		if err != nil {
			return err
		}
		if len(addrs) == 0 {
			return fmt.Errorf("%s: empty store", *storeDir)
		}
		var funcs []render.FuncInfo
		for _, addr := range addrs {
			p, diag, err := st.Get(addr)
			if err != nil {
				return err
			}
			for _, d := range diag {
				fmt.Fprintf(os.Stderr, "advisory: 0x%x: %s\n", addr, d)
			}
			funcs = append(funcs, render.FuncInfo{
				Name:  fmt.Sprintf("sub_%x", addr),
				Addr:  addr,
				Graph: p.Graph,
			})
		}
		if *title == "" {
			*title = filepath.Base(*storeDir)
		}
		g := render.BuildCallGraph(funcs)
		dot = render.CallGraphDOT(g, *title, render.Default)
	}

	if *dotOut == "" {
		fmt.Print(dot)
		return nil
	}
	if err := os.WriteFile(*dotOut, []byte(dot), 0644); err != nil {
		return fmt.Errorf("write %s: %w", *dotOut, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", *dotOut)
	return nil
}
