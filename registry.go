package bollywood

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Process is the mailbox endpoint addressed by a PID: exactly two
// user-visible operations, matching spec.md §3.
type Process interface {
	SendUserMessage(sender *PID, message interface{})
	SendSystemMessage(message interface{})
}

// ProcessRegistry is a flat, concurrent-safe id->Process map local to
// one ActorSystem, plus the dead-letter sink for that system. Lookup
// is lock-free via sync.Map; insert is exclusive on the key.
type ProcessRegistry struct {
	address    string
	localCount uint64
	processes  sync.Map // id(string) -> Process
	deadLetter *deadLetterProcess
}

func newProcessRegistry(address string, events *EventStream, logger Logger) *ProcessRegistry {
	return &ProcessRegistry{
		address:    address,
		deadLetter: &deadLetterProcess{events: events, logger: logger},
	}
}

// NextID returns a locally-unique, monotonically distinguishable id
// for a new PID: a small counter prefix for log readability plus a
// uuid suffix so ids never collide across restarts of the same
// process counter.
func (r *ProcessRegistry) NextID() string {
	n := atomic.AddUint64(&r.localCount, 1)
	return fmt.Sprintf("$%d-%s", n, uuid.NewString()[:8])
}

// Add registers a process under pid, failing with ErrNameExists if the
// id is already taken.
func (r *ProcessRegistry) Add(pid *PID, proc Process) error {
	_, loaded := r.processes.LoadOrStore(pid.ID, proc)
	if loaded {
		return ErrNameExists
	}
	return nil
}

// Remove unregisters pid. Idempotent.
func (r *ProcessRegistry) Remove(pid *PID) {
	r.processes.Delete(pid.ID)
}

// Get resolves a PID to its local Process, falling back to the
// dead-letter sink for unknown ids or ids from a foreign address (the
// remote lookup chain described in spec.md §4.4 is an external
// collaborator, out of scope here — any non-local address also routes
// to dead-letter in this single-process core).
func (r *ProcessRegistry) Get(pid *PID) Process {
	if pid == nil {
		return r.deadLetter
	}
	if pid.Address != "" && pid.Address != r.address {
		return r.deadLetter
	}
	if v, ok := r.processes.Load(pid.ID); ok {
		return v.(Process)
	}
	return r.deadLetter
}

// DeadLetter returns this registry's dead-letter sink.
func (r *ProcessRegistry) DeadLetter() Process {
	return r.deadLetter
}

// IsDeadLetter reports whether proc is this registry's dead-letter
// sink, letting callers attach the originally intended target PID to
// the published event (the Process interface itself carries no PID).
func (r *ProcessRegistry) IsDeadLetter(proc Process) bool {
	return proc == r.deadLetter
}

// PublishDeadLetter records a delivery to target that fell through to
// the dead-letter sink, including the target PID in the event.
func (r *ProcessRegistry) PublishDeadLetter(target, sender *PID, message interface{}) {
	r.deadLetter.publish(target, sender, message)
}

// deadLetterProcess is the sink for messages to unregistered or stopped
// PIDs; every delivery publishes a DeadLetterEvent.
type deadLetterProcess struct {
	events *EventStream
	logger Logger
}

func (d *deadLetterProcess) SendUserMessage(sender *PID, message interface{}) {
	d.publish(nil, sender, message)
}

func (d *deadLetterProcess) SendSystemMessage(message interface{}) {
	d.publish(nil, nil, message)
}

func (d *deadLetterProcess) publish(target, sender *PID, message interface{}) {
	if d.logger != nil {
		d.logger.Debugf("dead letter: target=%v sender=%v message=%T", target, sender, message)
	}
	if d.events != nil {
		d.events.Publish(DeadLetterEvent{PID: target, Sender: sender, Message: message})
	}
}
