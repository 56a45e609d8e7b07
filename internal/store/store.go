// Package store persists encoded programs, one file per function entry
// address, and serves decoded results through a bounded LRU cache. It is
// the storage collaborator around the codec: all it moves are raw byte
// buffers; encoding semantics live in the wire package.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	"cfgpack/internal/cfg"
	"cfgpack/internal/wire"
)

var ErrNotFound = errors.New("store: no program for address")

const fileExt = ".cfg"

// Store is a directory of encoded program files keyed by function entry
// address. Safe for concurrent use: the cache is internally synchronized
// and writes go through temp-file rename.
type Store struct {
	dir   string
	cache *lru.Cache[uint64, *cfg.Program]
}

// Open creates the directory if needed. cacheSize bounds the number of
// decoded programs kept in memory.
func Open(dir string, cacheSize int) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("store: mkdir: %w", err)
	}
	c, err := lru.New[uint64, *cfg.Program](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("store: cache: %w", err)
	}
	return &Store{dir: dir, cache: c}, nil
}

func (s *Store) path(addr uint64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%016x%s", addr, fileExt))
}

// Put encodes and writes the program for the given entry address,
// replacing any existing record and dropping the stale cache entry.
func (s *Store) Put(addr uint64, p *cfg.Program) error {
	enc := wire.EncodeProgram(p)
	final := s.path(addr)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, enc, 0644); err != nil {
		return fmt.Errorf("store: write: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("store: rename: %w", err)
	}
	s.cache.Remove(addr)
	return nil
}

// Get returns the decoded program for the given entry address, from cache
// when possible. Decode advisories are returned alongside; cached hits
// report none (they were surfaced on first load).
func (s *Store) Get(addr uint64) (*cfg.Program, []wire.Diag, error) {
	if p, ok := s.cache.Get(addr); ok {
		return p, nil, nil
	}
	enc, err := os.ReadFile(s.path(addr))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: 0x%x", ErrNotFound, addr)
		}
		return nil, nil, fmt.Errorf("store: read: %w", err)
	}
	p, diag, err := wire.DecodeProgram(enc)
	if err != nil {
		return nil, diag, fmt.Errorf("store: 0x%x: %w", addr, err)
	}
	s.cache.Add(addr, p)
	return p, diag, nil
}

// Addresses lists every stored entry address in directory order.
func (s *Store) Addresses() ([]uint64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("store: readdir: %w", err)
	}
	var out []uint64
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != fileExt {
			continue
		}
		var addr uint64
		if _, err := fmt.Sscanf(name, "%016x"+fileExt, &addr); err != nil {
			continue
		}
		out = append(out, addr)
	}
	return out, nil
}
