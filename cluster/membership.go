package cluster

// MembershipProvider is the external collaborator that emits Topology
// events on membership changes and on periodic refresh (spec.md §6).
// It must provide at-least-once delivery of the latest snapshot: a
// slow subscriber may miss an intermediate version but will always
// eventually observe the newest one.
type MembershipProvider interface {
	// Subscribe registers onTopology to be called with every topology
	// snapshot emitted after the call; a snapshot emitted earlier is
	// not replayed to it.
	Subscribe(onTopology func(Topology)) (unsubscribe func())
	// Start begins emitting topology events.
	Start() error
	// Stop halts the provider and releases its resources.
	Stop() error
}
