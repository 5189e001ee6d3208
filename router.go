package bollywood

import (
	"hash/fnv"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
)

// RouterState holds the immutable routee set a router actor fans out
// over; changes publish a fresh slice rather than mutating in place so
// concurrent readers never observe a half-updated set. Grounded on
// spec.md §4.6 directly — the teacher has no router concept (pongo is
// single-topology), so this follows the spec's description rather than
// adapting existing code.
type RouterState struct {
	mu      sync.RWMutex
	routees []*PID
}

// NewRouterState builds a RouterState over the given initial routees.
func NewRouterState(routees ...*PID) *RouterState {
	return &RouterState{routees: append([]*PID{}, routees...)}
}

// Routees returns the current immutable routee slice; callers must not
// mutate it.
func (r *RouterState) Routees() []*PID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.routees
}

// Add publishes a new routee set including pid, unless already present.
func (r *RouterState) Add(pid *PID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.routees {
		if p.Equal(pid) {
			return
		}
	}
	next := make([]*PID, len(r.routees)+1)
	copy(next, r.routees)
	next[len(r.routees)] = pid
	r.routees = next
}

// Remove publishes a new routee set excluding pid.
func (r *RouterState) Remove(pid *PID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := make([]*PID, 0, len(r.routees))
	for _, p := range r.routees {
		if !p.Equal(pid) {
			next = append(next, p)
		}
	}
	r.routees = next
}

// RouterLogic picks routee(s) for a message given the current state.
type RouterLogic interface {
	Route(state *RouterState, ctx Context, message interface{})
}

// BroadcastLogic sends to every routee.
type BroadcastLogic struct{}

func (BroadcastLogic) Route(state *RouterState, ctx Context, message interface{}) {
	for _, pid := range state.Routees() {
		ctx.Send(pid, message)
	}
}

// RoundRobinLogic sends to routees in rotation via an atomic counter
// modulo the current routee count.
type RoundRobinLogic struct {
	counter uint64
}

func (l *RoundRobinLogic) Route(state *RouterState, ctx Context, message interface{}) {
	routees := state.Routees()
	if len(routees) == 0 {
		return
	}
	n := atomic.AddUint64(&l.counter, 1)
	ctx.Send(routees[int(n-1)%len(routees)], message)
}

// RandomLogic sends to a uniformly random routee.
type RandomLogic struct{}

func (RandomLogic) Route(state *RouterState, ctx Context, message interface{}) {
	routees := state.Routees()
	if len(routees) == 0 {
		return
	}
	ctx.Send(routees[rand.Intn(len(routees))], message)
}

// KeyFunc extracts the routing key for a message, used by
// ConsistentHashLogic.
type KeyFunc func(message interface{}) string

// ConsistentHashLogic routes by the FNV-1a hash of a message-derived
// key modulo the routee count, over the routees sorted by id, so a key
// keeps its routee while the routee set is unchanged. No hash ring is
// built: adding or removing a routee can move most keys to a
// different routee.
type ConsistentHashLogic struct {
	KeyOf KeyFunc
}

func (l ConsistentHashLogic) Route(state *RouterState, ctx Context, message interface{}) {
	routees := state.Routees()
	if len(routees) == 0 {
		return
	}
	key := ""
	if l.KeyOf != nil {
		key = l.KeyOf(message)
	}
	target := pickByHash(routees, key)
	ctx.Send(target, message)
}

func pickByHash(routees []*PID, key string) *PID {
	sorted := append([]*PID{}, routees...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	sum := h.Sum64()

	idx := int(sum % uint64(len(sorted)))
	return sorted[idx]
}

// RouterAdd is sent to a router actor to add a routee at runtime.
type RouterAdd struct{ PID *PID }

// RouterRemove is sent to a router actor to remove a routee at runtime.
type RouterRemove struct{ PID *PID }

// NewRouterProducer builds a Producer for a stateless fan-out actor
// using the given logic over an initial routee set.
func NewRouterProducer(logic RouterLogic, initial ...*PID) Producer {
	return func() Actor {
		return &routerActor{state: NewRouterState(initial...), logic: logic}
	}
}

type routerActor struct {
	state *RouterState
	logic RouterLogic
}

func (a *routerActor) Receive(ctx Context) {
	switch msg := ctx.Message().(type) {
	case *Started, *Stopping, *Stopped:
		// no-op lifecycle hooks
	case RouterAdd:
		a.state.Add(msg.PID)
	case RouterRemove:
		a.state.Remove(msg.PID)
	default:
		a.logic.Route(a.state, ctx, msg)
	}
}
