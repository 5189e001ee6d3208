package bollywood

import "fmt"

// PID is an opaque, immutable reference to an actor's mailbox endpoint.
// Equality is structural on (Address, ID); a PID never keeps its actor
// alive — it is a value, not an owning reference.
type PID struct {
	Address string
	ID      string

	// process is a local handle set by spawn on the PID value it
	// returns. Registry lookups neither read nor set it; they resolve
	// by ID. It is never compared for equality and is not part of the
	// PID's identity.
	process *process
}

// NewPID constructs a PID for the given address/id pair.
func NewPID(address, id string) *PID {
	return &PID{Address: address, ID: id}
}

// String renders the PID as "address/id".
func (pid *PID) String() string {
	if pid == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s/%s", pid.Address, pid.ID)
}

// Equal reports structural equality on (Address, ID).
func (pid *PID) Equal(other *PID) bool {
	if pid == nil || other == nil {
		return pid == other
	}
	return pid.Address == other.Address && pid.ID == other.ID
}

func (pid *PID) ref(p *process) {
	pid.process = p
}
