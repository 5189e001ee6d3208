package cluster

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lguibr/bollywood"
)

// PidCache memoizes ClusterIdentity -> PID resolutions so repeated
// requests for the same grain skip activation. Entries are invalidated
// explicitly on dead-letter/not-found and wholesale on topology change
// (spec.md §4.7). Wired to hashicorp/golang-lru/v2, grounded on
// webitel-im-delivery-service's use of the same package for its
// session cache.
type PidCache struct {
	mu    sync.Mutex
	cache *lru.Cache[ClusterIdentity, *bollywood.PID]
}

// NewPidCache builds a cache holding up to size entries. size <= 0
// falls back to a small default rather than an unbounded cache.
func NewPidCache(size int) *PidCache {
	if size <= 0 {
		size = 10_000
	}
	c, _ := lru.New[ClusterIdentity, *bollywood.PID](size)
	return &PidCache{cache: c}
}

// Get returns the cached PID for identity, if any.
func (p *PidCache) Get(identity ClusterIdentity) (*bollywood.PID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.Get(identity)
}

// Set records the resolved PID for identity.
func (p *PidCache) Set(identity ClusterIdentity, pid *bollywood.PID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache.Add(identity, pid)
}

// Remove invalidates a single identity, e.g. after a dead-letter or
// not-found response from its supposed owner.
func (p *PidCache) Remove(identity ClusterIdentity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache.Remove(identity)
}

// Purge drops every cached entry, used on topology change since any
// entry may now point at a member that no longer owns its identity.
func (p *PidCache) Purge() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache.Purge()
}
