package client

import "sync"

// SearchGuard serializes the results of overlapping searches. Each new search
// takes a generation; when its response arrives, Current reports whether a
// newer search has started since. A slow old response can then be dropped
// instead of overwriting fresher results.
type SearchGuard struct {
	mu  sync.Mutex
	gen uint64
}

// Next starts a new search and returns its generation.
func (g *SearchGuard) Next() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	return g.gen
}

// Current reports whether the given generation is still the latest.
func (g *SearchGuard) Current(gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return gen == g.gen
}

// Search runs fn under a fresh generation and reports whether its result is
// still current when it returns.
func (g *SearchGuard) Search(fn func() error) (current bool, err error) {
	gen := g.Next()
	err = fn()
	return g.Current(gen), err
}
