package main

import (
	"flag"
	"fmt"
	"os"

	"cfgpack/internal/cfg"
)

func cmdValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
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

	violations := cfg.Validate(p)
	for _, v := range violations {
		fmt.Println(v)
	}
	if n := len(violations); n > 0 {
		return fmt.Errorf("%d violations in %s", n, *in)
	}
	fmt.Fprintf(os.Stderr, "%s: ok\n", *in)
	return nil
}
