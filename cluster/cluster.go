package cluster

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lguibr/bollywood"
	"github.com/lguibr/bollywood/config"
)

// RemoteDispatcher forwards a cluster request to a member other than
// the local one. It is the seam a transport implementation plugs into;
// the cluster layer itself carries no wire format opinion (remote
// framing is out of scope here, per SPEC_FULL.md §5).
type RemoteDispatcher interface {
	RequestRemote(member Member, identity ClusterIdentity, message interface{}, timeout time.Duration) (interface{}, error)
}

// Cluster resolves a ClusterIdentity to a live grain PID, activating
// it on first use and reconciling as topology changes (spec.md §4.7).
// Grounded on spec.md directly; the pid cache and block list are
// wired to hashicorp/golang-lru/v2 and sony/gobreaker as enrichment
// from webitel-im-delivery-service.
type Cluster struct {
	system *bollywood.ActorSystem
	self   Member

	kinds     *kindRegistry
	pidCache  *PidCache
	blockList *BlockList

	membership MembershipProvider
	remote     RemoteDispatcher

	partitionPID *bollywood.PID

	topology atomic.Pointer[Topology]

	maxAttempts       int
	activationTimeout time.Duration

	mu          sync.Mutex
	unsubscribe func()
}

// NewCluster builds a Cluster bound to system, advertising self as
// this process's member record (its Kinds are filled in as kinds are
// registered) and fed topology snapshots by membership.
func NewCluster(system *bollywood.ActorSystem, self Member, membership MembershipProvider, cfg config.Config) *Cluster {
	c := &Cluster{
		system:            system,
		self:              self,
		kinds:             newKindRegistry(),
		pidCache:          NewPidCache(cfg.ClusterPidCacheSize),
		blockList:         NewBlockList(cfg.BlockedMemberDuration),
		membership:        membership,
		maxAttempts:       cfg.ClusterMaxRequestAttempts,
		activationTimeout: cfg.ClusterActivationTimeout,
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = 3
	}
	if c.activationTimeout <= 0 {
		c.activationTimeout = 5 * time.Second
	}
	empty := NewTopology(0, nil)
	c.topology.Store(&empty)
	return c
}

// SetRemoteDispatcher wires a transport so requests owned by a member
// other than self can be forwarded. Without one, Request fails fast
// for non-local identities.
func (c *Cluster) SetRemoteDispatcher(remote RemoteDispatcher) {
	c.remote = remote
}

// RegisterKind makes activator available for identities of kind. Must
// be called before Start.
func (c *Cluster) RegisterKind(kind string, activator Activator) {
	c.kinds.register(kind, activator)
	c.self.Kinds = c.kinds.kinds()
}

// Start spawns the local partition owner actor and begins tracking
// topology via the membership provider.
func (c *Cluster) Start() error {
	c.partitionPID = c.system.Spawn(bollywood.NewProps(newPartitionIdentityProducer(c.system, c.kinds)))

	c.mu.Lock()
	c.unsubscribe = c.membership.Subscribe(c.onTopology)
	c.mu.Unlock()

	return c.membership.Start()
}

// Stop halts topology tracking and the membership provider.
func (c *Cluster) Stop() error {
	c.mu.Lock()
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.mu.Unlock()
	if c.partitionPID != nil {
		c.system.Stop(c.partitionPID)
	}
	return c.membership.Stop()
}

// Topology returns the most recently applied topology snapshot.
func (c *Cluster) Topology() Topology {
	return *c.topology.Load()
}

// onTopology applies a new snapshot: per spec.md §4.7, every cached
// pid is invalidated since ownership may have shifted, then the event
// is published for observers.
func (c *Cluster) onTopology(t Topology) {
	current := c.topology.Load()
	if current != nil && current.Version >= t.Version {
		return
	}
	c.topology.Store(&t)
	c.pidCache.Purge()
	c.system.EventStream().Publish(bollywood.TopologyApplied{Version: t.Version})
}

// Request resolves identity to a PID (consulting the cache, then
// activating via the owning member's partition actor) and asks it
// message. When the ask fails (e.g. a dead-letter from a stale cached
// PID), the cache entry is dropped, a failure is recorded against the
// owner, and the request is tried again, up to the configured attempt
// budget; ErrIdentityUnavailable is returned once the budget is
// exhausted. An error from resolution itself (no member supports the
// kind, a blocked owner, an activation error) is returned at once,
// without retry, as is ErrTimeout once the overall deadline has passed.
func Request[T any](c *Cluster, identity ClusterIdentity, message interface{}, timeout time.Duration) (T, error) {
	var zero T
	deadline := time.Now().Add(timeout)

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return zero, bollywood.ErrTimeout
		}

		pid, err := c.resolve(identity, remaining)
		if err != nil {
			return zero, err
		}

		future := c.system.Root().RequestFuture(pid, message, remaining)
		result, err := future.Wait()
		if err == nil {
			if ge, ok := result.(*bollywood.GrainError); ok {
				return zero, ge
			}
			typed, ok := result.(T)
			if !ok {
				return zero, &bollywood.GrainError{Code: "type_mismatch", Message: "unexpected reply type"}
			}
			return typed, nil
		}

		c.pidCache.Remove(identity)
		if owner, ok := c.Topology().OwnerOf(identity); ok {
			c.recordMemberFailure(owner.ID)
		}
	}
	return zero, bollywood.ErrIdentityUnavailable
}

// recordMemberFailure reports a failed request against memberID and
// publishes MemberBlockedEvent the moment its breaker trips open.
func (c *Cluster) recordMemberFailure(memberID string) {
	wasBlocked := c.blockList.IsBlocked(memberID)
	c.blockList.RecordFailure(memberID)
	if !wasBlocked && c.blockList.IsBlocked(memberID) {
		c.system.EventStream().Publish(bollywood.MemberBlockedEvent{MemberID: memberID})
	}
}

// resolve returns a live PID for identity, consulting the cache first
// and otherwise asking the owning member's partition actor to
// activate it (locally, or via the RemoteDispatcher for a non-local
// owner).
func (c *Cluster) resolve(identity ClusterIdentity, timeout time.Duration) (*bollywood.PID, error) {
	if pid, ok := c.pidCache.Get(identity); ok {
		return pid, nil
	}

	owner, ok := c.Topology().OwnerOf(identity)
	if !ok {
		return nil, bollywood.ErrIdentityUnavailable
	}
	if !c.blockList.Allow(owner.ID) {
		return nil, bollywood.ErrMemberBlocked
	}
	if timeout > c.activationTimeout {
		timeout = c.activationTimeout
	}

	if owner.ID == c.self.ID {
		future := c.system.Root().RequestFuture(c.partitionPID, ActivationRequest{Identity: identity}, timeout)
		result, err := future.Wait()
		if err != nil {
			c.recordMemberFailure(owner.ID)
			return nil, err
		}
		resp := result.(ActivationResponse)
		if resp.Err != nil {
			return nil, resp.Err
		}
		c.blockList.RecordSuccess(owner.ID)
		c.pidCache.Set(identity, resp.PID)
		return resp.PID, nil
	}

	if c.remote == nil {
		return nil, bollywood.ErrIdentityUnavailable
	}
	result, err := c.remote.RequestRemote(owner, identity, ActivationRequest{Identity: identity}, timeout)
	if err != nil {
		c.recordMemberFailure(owner.ID)
		return nil, err
	}
	resp, ok := result.(ActivationResponse)
	if !ok || resp.Err != nil {
		return nil, bollywood.ErrIdentityUnavailable
	}
	c.blockList.RecordSuccess(owner.ID)
	c.pidCache.Set(identity, resp.PID)
	return resp.PID, nil
}
