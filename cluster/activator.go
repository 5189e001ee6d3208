package cluster

import "github.com/lguibr/bollywood"

// Activator builds the Props for a freshly-activated grain of a given
// kind. Registered per-kind on a Cluster via RegisterKind.
type Activator func(identity ClusterIdentity) *bollywood.Props

// kindRegistry holds the Activators a Cluster knows how to spawn,
// keyed by kind name.
type kindRegistry struct {
	activators map[string]Activator
}

func newKindRegistry() *kindRegistry {
	return &kindRegistry{activators: make(map[string]Activator)}
}

func (r *kindRegistry) register(kind string, activator Activator) {
	r.activators[kind] = activator
}

func (r *kindRegistry) kinds() []string {
	out := make([]string, 0, len(r.activators))
	for k := range r.activators {
		out = append(out, k)
	}
	return out
}

func (r *kindRegistry) activatorFor(kind string) (Activator, bool) {
	a, ok := r.activators[kind]
	return a, ok
}
