package cluster

import (
	"fmt"

	"github.com/lguibr/bollywood"
)

// ActivationRequest asks whichever member owns an identity's partition
// to resolve (activating if necessary) its PID.
type ActivationRequest struct {
	Identity ClusterIdentity
}

// ActivationResponse is the reply to an ActivationRequest. Err is set
// when the identity's kind is not registered on this member.
type ActivationResponse struct {
	PID *bollywood.PID
	Err error
}

// partitionIdentityActor owns activation for every identity this
// member is responsible for. Requests for the same identity are
// naturally serialized by mailbox ordering (spec.md §4.7), so two
// concurrent first-touches of the same grain never double-activate it.
type partitionIdentityActor struct {
	system    *bollywood.ActorSystem
	kinds     *kindRegistry
	activated map[ClusterIdentity]*bollywood.PID
}

func newPartitionIdentityProducer(system *bollywood.ActorSystem, kinds *kindRegistry) bollywood.Producer {
	return func() bollywood.Actor {
		return &partitionIdentityActor{
			system:    system,
			kinds:     kinds,
			activated: make(map[ClusterIdentity]*bollywood.PID),
		}
	}
}

func (a *partitionIdentityActor) Receive(ctx bollywood.Context) {
	switch msg := ctx.Message().(type) {
	case *bollywood.Started, *bollywood.Stopping, *bollywood.Stopped:
		// no-op lifecycle hooks
	case *bollywood.Terminated:
		a.forget(msg.Who)
	case ActivationRequest:
		ctx.Respond(a.activate(ctx, msg.Identity))
	}
}

func (a *partitionIdentityActor) forget(who *bollywood.PID) {
	for identity, pid := range a.activated {
		if pid.Equal(who) {
			delete(a.activated, identity)
			return
		}
	}
}

func (a *partitionIdentityActor) activate(ctx bollywood.Context, identity ClusterIdentity) ActivationResponse {
	if pid, ok := a.activated[identity]; ok {
		return ActivationResponse{PID: pid}
	}
	activator, ok := a.kinds.activatorFor(identity.Kind)
	if !ok {
		return ActivationResponse{Err: fmt.Errorf("cluster: kind %q not registered on this member", identity.Kind)}
	}
	props := activator(identity)
	pid, err := ctx.SpawnNamed(props, "grain-"+identity.String())
	if err != nil {
		return ActivationResponse{Err: err}
	}
	a.activated[identity] = pid
	ctx.Watch(pid)
	return ActivationResponse{PID: pid}
}
