package cluster

import (
	"hash/fnv"
	"sort"
)

// Member describes one cluster node as reported by a MembershipProvider.
type Member struct {
	ID    string
	Host  string
	Port  int
	Kinds []string
}

func (m Member) supports(kind string) bool {
	for _, k := range m.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Topology is an immutable, versioned snapshot of the current cluster
// membership. Subscribers always observe one coherent snapshot;
// copy-on-update means an in-flight computation never sees a
// half-applied topology.
type Topology struct {
	Version uint64
	Members []Member
	Hash    uint64
}

// NewTopology builds a Topology for the given members, stamping a
// topology-hash computed over the sorted member ids so two topologies
// with the same membership (in any order) hash identically.
func NewTopology(version uint64, members []Member) Topology {
	sorted := append([]Member{}, members...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	h := fnv.New64a()
	for _, m := range sorted {
		_, _ = h.Write([]byte(m.ID))
		_, _ = h.Write([]byte{0})
	}
	return Topology{Version: version, Members: sorted, Hash: h.Sum64()}
}

// OwnerOf computes the deterministic owner member for identity among
// the members that support its kind: the FNV-1a hash of
// "kind/identity" modulo the number of candidates, taken in id order.
// This is modulo hashing, not a hash ring: adding or removing a
// supporting member can move most identities to a different owner.
// Returns false if no member supports the kind.
func (t Topology) OwnerOf(identity ClusterIdentity) (Member, bool) {
	candidates := make([]Member, 0, len(t.Members))
	for _, m := range t.Members {
		if m.supports(identity.Kind) {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return Member{}, false
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	h := fnv.New64a()
	_, _ = h.Write([]byte(identity.Kind))
	_, _ = h.Write([]byte{'/'})
	_, _ = h.Write([]byte(identity.Identity))
	sum := h.Sum64()

	idx := int(sum % uint64(len(candidates)))
	return candidates[idx], true
}
