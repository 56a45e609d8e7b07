package main

import (
	"os"
	"path/filepath"
	"testing"

	"cfgpack/internal/cfg"
	"cfgpack/internal/wire"
)

func writeTestProgram(t *testing.T, path string, src uint64, payload string) {
	t.Helper()
	g := cfg.NewBlockGraph()
	e := &cfg.Edge{Src: src, Dst: src + 0x10, Kind: cfg.JumpBoring, InsAddr: src + 0xc, StmtIdx: cfg.IndexUnknown}
	if payload != "" {
		e.Payload = map[string][]byte{"origin": []byte(payload)}
	}
	g.Add(e)
	p := &cfg.Program{
		Arch:   "arm64",
		Blocks: []cfg.Block{{Addr: src, Size: 16, Bytes: make([]byte, 16)}},
		Graph:  g,
	}
	if err := writeProgram(path, p); err != nil {
		t.Fatal(err)
	}
}

func TestReadWriteProgram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.cfg")
	writeTestProgram(t, path, 0x1000, "")

	p, diag, err := readProgram(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(diag) != 0 {
		t.Errorf("diagnostics = %v, want none", diag)
	}
	if len(p.Blocks) != 1 || p.Graph.Len() != 1 {
		t.Errorf("got %d blocks, %d edges", len(p.Blocks), p.Graph.Len())
	}
}

func TestCmdMerge(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.cfg")
	b := filepath.Join(dir, "b.cfg")
	out := filepath.Join(dir, "merged.cfg")
	writeTestProgram(t, a, 0x1000, "")
	writeTestProgram(t, b, 0x2000, "")

	if err := cmdMerge([]string{"--out", out, a, b}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	enc, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	p, _, err := wire.DecodeProgram(enc)
	if err != nil {
		t.Fatal(err)
	}
	if p.Graph.Len() != 2 {
		t.Errorf("merged edges = %d, want 2", p.Graph.Len())
	}
	if len(p.Blocks) != 2 || p.Blocks[0].Addr >= p.Blocks[1].Addr {
		t.Errorf("merged blocks not sorted: %+v", p.Blocks)
	}
}

func TestCmdMergeConflictLastWins(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.cfg")
	b := filepath.Join(dir, "b.cfg")
	out := filepath.Join(dir, "merged.cfg")
	writeTestProgram(t, a, 0x1000, "worker-1")
	writeTestProgram(t, b, 0x1000, "worker-2")

	if err := cmdMerge([]string{"--out", out, a, b}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	enc, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	p, _, err := wire.DecodeProgram(enc)
	if err != nil {
		t.Fatal(err)
	}
	edges := p.Graph.Edges()
	if len(edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(edges))
	}
	if got := string(edges[0].Payload["origin"]); got != "worker-2" {
		t.Errorf("payload = %q, want later input to win", got)
	}
}

func TestCmdMergeDedupsEntities(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.cfg")
	b := filepath.Join(dir, "b.cfg")
	out := filepath.Join(dir, "merged.cfg")

	// Both inputs cover function 0x1000; the later input's block body and
	// symbol record must win, not duplicate.
	mk := func(fill byte) *cfg.Program {
		g := cfg.NewBlockGraph()
		g.Add(&cfg.Edge{Src: 0x1000, Dst: 0, Kind: cfg.JumpReturn, InsAddr: 0x100c, StmtIdx: cfg.IndexUnknown, IsOutside: true})
		bytes := make([]byte, 16)
		for i := range bytes {
			bytes[i] = fill
		}
		return &cfg.Program{
			Arch:      "arm64",
			Blocks:    []cfg.Block{{Addr: 0x1000, Size: 16, Bytes: bytes}},
			Functions: []cfg.ExternalFunction{{Name: "memcpy", Addr: 0x9000, HasReturn: true}},
			Graph:     g,
		}
	}
	if err := writeProgram(a, mk(0x00)); err != nil {
		t.Fatal(err)
	}
	if err := writeProgram(b, mk(0xFF)); err != nil {
		t.Fatal(err)
	}

	if err := cmdMerge([]string{"--out", out, a, b}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	enc, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	p, _, err := wire.DecodeProgram(enc)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Blocks) != 1 {
		t.Fatalf("blocks = %d, want single deduplicated record", len(p.Blocks))
	}
	if p.Blocks[0].Bytes[0] != 0xFF {
		t.Error("block body from the earlier input won, want later input")
	}
	if len(p.Functions) != 1 {
		t.Errorf("functions = %d, want single deduplicated record", len(p.Functions))
	}
}

func TestCmdValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.cfg")
	writeTestProgram(t, path, 0x1000, "")
	if err := cmdValidate([]string{"--in", path}); err != nil {
		t.Errorf("validate clean file: %v", err)
	}

	// A zero-size block must fail validation.
	bad := &cfg.Program{
		Arch:   "arm64",
		Blocks: []cfg.Block{{Addr: 0x1000, Size: 0}},
		Graph:  cfg.NewBlockGraph(),
	}
	badPath := filepath.Join(t.TempDir(), "bad.cfg")
	if err := writeProgram(badPath, bad); err != nil {
		t.Fatal(err)
	}
	if err := cmdValidate([]string{"--in", badPath}); err == nil {
		t.Error("validate accepted a zero-size block")
	}
}
