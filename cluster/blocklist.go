package cluster

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sony/gobreaker"
)

// BlockList tracks members that have recently failed to serve
// activation requests, so the cluster layer can stop routing new
// requests to them until they either recover or age out (spec.md
// §4.7's MemberBlocked behaviour). A member is "blocked" precisely
// when its circuit breaker is open; the breaker's own open-state
// timeout (the ttl) half-opens it so a blocked member periodically
// gets a single trial request. The TTL store only records which
// members tripped, for Blocked. Wired to hashicorp/golang-lru/v2/expirable and
// sony/gobreaker, both grounded on webitel-im-delivery-service.
type BlockList struct {
	ttl time.Duration

	mu        sync.Mutex
	breakers  map[string]*gobreaker.CircuitBreaker[any]
	blockedAt *expirable.LRU[string, time.Time]
}

// NewBlockList builds a BlockList whose blocked-member markers expire
// after ttl (config.BlockedMemberDuration). ttl <= 0 falls back to one
// hour.
func NewBlockList(ttl time.Duration) *BlockList {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &BlockList{
		ttl:       ttl,
		breakers:  make(map[string]*gobreaker.CircuitBreaker[any]),
		blockedAt: expirable.NewLRU[string, time.Time](0, nil, ttl),
	}
}

func (b *BlockList) breakerFor(memberID string) *gobreaker.CircuitBreaker[any] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cb, ok := b.breakers[memberID]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        memberID,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     b.ttl,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	b.breakers[memberID] = cb
	return cb
}

// Allow reports whether a request may currently be routed to
// memberID: false when its breaker is open (blocked).
func (b *BlockList) Allow(memberID string) bool {
	return b.breakerFor(memberID).State() != gobreaker.StateOpen
}

// IsBlocked reports whether memberID is currently in the blocked set.
func (b *BlockList) IsBlocked(memberID string) bool {
	return !b.Allow(memberID)
}

// RecordSuccess reports a successful activation/request against
// memberID, closing its breaker if it was half-open.
func (b *BlockList) RecordSuccess(memberID string) {
	cb := b.breakerFor(memberID)
	_, _ = cb.Execute(func() (any, error) { return nil, nil })
}

// RecordFailure reports a failed activation/request against memberID.
// Once the breaker trips open, memberID is recorded in the TTL store
// so callers can enumerate currently blocked members.
func (b *BlockList) RecordFailure(memberID string) {
	cb := b.breakerFor(memberID)
	_, _ = cb.Execute(func() (any, error) { return nil, assertionFailed })
	if cb.State() == gobreaker.StateOpen {
		b.blockedAt.Add(memberID, time.Now())
	}
}

// Blocked returns the ids of all members currently recorded as
// blocked (may include members whose breaker has since half-opened;
// callers should prefer Allow/IsBlocked for a routing decision).
func (b *BlockList) Blocked() []string {
	return b.blockedAt.Keys()
}

var assertionFailed = &blockListProbeError{}

type blockListProbeError struct{}

func (*blockListProbeError) Error() string { return "probe failure" }
