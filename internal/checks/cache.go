// Package checks implements the compiler check protocol (spec §4.8):
// compiles/run/has_header/has_function/has_member/has_type/sizeof/
// alignment, each memoized per (compiler.id, language, code-hash,
// flags-hash) within a configure run.
package checks

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Result is a single check's outcome, logged as a YES/NO/value summary
// (spec §4.8).
type Result struct {
	Compiles bool
	Value    int64 // for sizeof/alignment; -1 when the probe failed
	Stdout   string
	Stderr   string
	RC       int
}

// key identifies one memoizable probe: spec §4.8 mandates evaluation at
// most once per distinct (compiler.id, language, code-hash, flags-hash)
// tuple within a single configure.
type key struct {
	compilerID string
	language   string
	codeHash   uint64
	flagsHash  uint64
}

// Cache is a lock-free memoization table modeled on the teacher's
// sync.Map-based MetricsCache (internal/cache/metrics_cache.go): reads and
// writes never block each other, entries never expire mid-configure
// (spec §4.8 has no cross-run memoization requirement).
type Cache struct {
	entries sync.Map // map[key]Result
	hits    int64
	misses  int64
	mu      sync.Mutex // guards hits/misses counters
}

func NewCache() *Cache {
	return &Cache{}
}

func hashOf(s string) uint64 {
	return xxhash.Sum64String(s)
}

func makeKey(compilerID, language, code string, flags []string) key {
	var flagsJoined string
	for _, f := range flags {
		flagsJoined += f + "\x00"
	}
	return key{
		compilerID: compilerID,
		language:   language,
		codeHash:   hashOf(code),
		flagsHash:  hashOf(flagsJoined),
	}
}

// GetOrCompute returns a cached Result if this (compiler, language, code,
// flags) tuple was already probed this configure; otherwise it invokes
// compute, stores, and returns the result.
func (c *Cache) GetOrCompute(compilerID, language, code string, flags []string, compute func() Result) Result {
	k := makeKey(compilerID, language, code, flags)
	if v, ok := c.entries.Load(k); ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return v.(Result)
	}
	r := compute()
	c.entries.Store(k, r)
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	return r
}

func (c *Cache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
