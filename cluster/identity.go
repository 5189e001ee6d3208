// Package cluster implements the virtual-actor ("grain") identity
// layer described in spec.md §4.7: translating a (kind, identity) pair
// into a live actor on some member, activating it on first use, and
// reconciling the directory as topology changes. Grounded on spec.md
// directly — the teacher (lguibr-pongo) is single-process and has no
// cluster concept — enriched with webitel-im-delivery-service's
// hashicorp/golang-lru and sony/gobreaker for the pid cache and block
// list, per SPEC_FULL.md §3.
package cluster

import "fmt"

// ClusterIdentity is the canonical key for a virtual actor: a kind
// name plus an opaque identity string, e.g. ("player", "u-123").
type ClusterIdentity struct {
	Kind     string
	Identity string
}

func (ci ClusterIdentity) String() string {
	return fmt.Sprintf("%s/%s", ci.Kind, ci.Identity)
}
