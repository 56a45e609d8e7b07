package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "lift":
		err = cmdLift(os.Args[2:])
	case "info":
		err = cmdInfo(os.Args[2:])
	case "validate":
		err = cmdValidate(os.Args[2:])
	case "merge":
		err = cmdMerge(os.Args[2:])
	case "render":
		err = cmdRender(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `cfgpack — control-flow graph recovery and interchange

Usage:
  cfgpack lift     --lib <path> --out <dir>       Lift ARM64 functions into a CFG store
  cfgpack info     --in <file>                    Summarize an encoded CFG file
  cfgpack validate --in <file>                    Check an encoded CFG for violations
  cfgpack merge    --out <file> <in>...           Merge encoded CFGs, reporting conflicts
  cfgpack render   --in <file> [--dot <file>]     Render a CFG as DOT
  cfgpack render   --store <dir> [--dot <file>]   Render the call graph of a CFG store

Flags:
  --lib <path>      Path to an ARM64 ELF binary
  --out <dir|file>  Output store directory or file
  --in <file>       Encoded CFG input file
  --func <name>     Restrict lift to one symbol
  --cache <n>       Decoded program cache size
  --dot <file>      DOT output path (default stdout)
`)
}
