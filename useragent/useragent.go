// Package useragent supplies realistic browser identifiers for outbound
// requests.
package useragent

import "sync"

// DefaultPool lists current desktop browser user-agent strings. The first
// entry is used exclusively when rotation is disabled.
var DefaultPool = []string{
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0",
}

// Rotator hands out user-agent strings from a fixed pool. No I/O.
type Rotator struct {
	mu     sync.Mutex
	pool   []string
	rotate bool
	next   int
}

// NewRotator builds a rotator over pool. An empty pool falls back to
// DefaultPool. When rotate is false, Next always returns the first entry.
func NewRotator(pool []string, rotate bool) *Rotator {
	if len(pool) == 0 {
		pool = DefaultPool
	}
	copied := make([]string, len(pool))
	copy(copied, pool)
	return &Rotator{pool: copied, rotate: rotate}
}

// Next returns the user-agent string for the next request. Round-robin order
// guarantees two consecutive calls never return the same entry when the pool
// holds more than one.
func (r *Rotator) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.rotate || len(r.pool) == 1 {
		return r.pool[0]
	}
	agent := r.pool[r.next]
	r.next = (r.next + 1) % len(r.pool)
	return agent
}
