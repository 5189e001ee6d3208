package bollywood

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lguibr/bollywood/config"
)

// ActorSystem owns one process registry, one event stream, and the
// root guardian actor every top-level Spawn is parented under.
// Grounded on the teacher's Engine (spawn/send/stop/shutdown), renamed
// and generalized to the spec's ActorSystem lifecycle (§6): created
// with configuration, started by spawning the root guardian, and torn
// down by stopping it (cascading to every actor). It holds no remote
// endpoints of its own to close.
type ActorSystem struct {
	address  string
	config   config.Config
	logger   Logger
	registry *ProcessRegistry
	events   *EventStream

	root        *PID
	rootProcess *process

	stopping atomic.Bool

	statsMu sync.Mutex
	stats   map[string]*RestartStatistics
}

// Option configures an ActorSystem at construction.
type Option func(*ActorSystem)

// WithAddress sets the system's local address (used to distinguish
// local PIDs from remote ones once a transport is attached).
func WithAddress(address string) Option {
	return func(s *ActorSystem) { s.address = address }
}

// WithLogger overrides DefaultLogger for this system.
func WithLogger(logger Logger) Option {
	return func(s *ActorSystem) { s.logger = logger }
}

// WithConfig supplies the runtime configuration options of spec.md §6.
func WithConfig(cfg config.Config) Option {
	return func(s *ActorSystem) { s.config = cfg }
}

// NewActorSystem constructs and starts an ActorSystem: the process
// registry and event stream are created, and the root guardian is
// spawned.
func NewActorSystem(opts ...Option) *ActorSystem {
	s := &ActorSystem{
		address: "local",
		config:  config.Default(),
		logger:  DefaultLogger,
		stats:   make(map[string]*RestartStatistics),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = NewEventStream(s.logger)
	s.registry = newProcessRegistry(s.address, s.events, s.logger)

	rootProps := NewProps(func() Actor { return ActorFunc(func(ctx Context) {}) },
		WithSupervisor(DefaultSupervisorStrategy()))
	rootPID := &PID{Address: s.address, ID: "$root"}
	s.rootProcess = newProcess(s, rootProps, rootPID, nil)
	if err := s.registry.Add(rootPID, s.rootProcess); err != nil {
		panic(fmt.Sprintf("bollywood: could not register root guardian: %v", err))
	}
	rootPID.ref(s.rootProcess)
	s.root = rootPID
	s.rootProcess.SendSystemMessage(&Started{})

	return s
}

// Config returns this system's configuration.
func (s *ActorSystem) Config() config.Config { return s.config }

// SetConfig replaces the live configuration, for hot-reload callers
// (config.Watch).
func (s *ActorSystem) SetConfig(cfg config.Config) { s.config = cfg }

// Logger returns the system's logger.
func (s *ActorSystem) Logger() Logger { return s.logger }

// EventStream returns the system's pub/sub bus.
func (s *ActorSystem) EventStream() *EventStream { return s.events }

// Registry returns the process registry backing this system.
func (s *ActorSystem) Registry() *ProcessRegistry { return s.registry }

// Address returns the system's local address.
func (s *ActorSystem) Address() string { return s.address }

// Root returns a RootContext: the parentless Context user code uses to
// spawn top-level actors and issue asks (spec.md §2).
func (s *ActorSystem) Root() Context {
	return newRootContext(s)
}

// Spawn creates a top-level actor (parented under the root guardian)
// with an auto-generated name.
func (s *ActorSystem) Spawn(props *Props) *PID {
	pid, _ := s.SpawnNamed(props, s.registry.NextID())
	return pid
}

// SpawnNamed creates a top-level actor under an explicit name, failing
// with ErrNameExists if taken.
func (s *ActorSystem) SpawnNamed(props *Props, name string) (*PID, error) {
	return s.spawn(props, name, s.root)
}

func (s *ActorSystem) spawn(props *Props, name string, parent *PID) (*PID, error) {
	if s.stopping.Load() {
		return nil, ErrSystemStopping
	}
	pid := &PID{Address: s.address, ID: name}
	proc := newProcess(s, props, pid, parent)
	if err := s.registry.Add(pid, proc); err != nil {
		return nil, err
	}
	pid.ref(proc)
	proc.SendSystemMessage(&Started{})
	return pid, nil
}

// Send delivers message to pid, fire-and-forget, from no particular
// sender.
func (s *ActorSystem) Send(pid *PID, message interface{}) {
	s.sendUserMessage(pid, message, nil)
}

func (s *ActorSystem) sendUserMessage(pid *PID, message interface{}, sender *PID) {
	if s.stopping.Load() {
		if !isTerminalSystemMessage(message) {
			return
		}
	}
	proc := s.registry.Get(pid)
	if s.registry.IsDeadLetter(proc) {
		if s.config.DeadLetterRequestLogging {
			s.logger.Infof("dead letter: send to %s dropped: %T", pid, message)
		}
		s.registry.PublishDeadLetter(pid, sender, message)
		if sender != nil {
			if fp, ok := s.registry.Get(sender).(*futureProcess); ok {
				fp.future.complete(nil, ErrDeadLetter)
			}
		}
		return
	}
	proc.SendUserMessage(sender, message)
}

func isTerminalSystemMessage(message interface{}) bool {
	switch message.(type) {
	case *Stop, *Stopping, *Stopped, PoisonPill:
		return true
	default:
		return false
	}
}

func (s *ActorSystem) requestFuture(pid *PID, message interface{}, sender *PID, timeout time.Duration) *Future {
	future := newFuture(s, timeout)
	s.sendUserMessage(pid, message, future.PID())
	return future
}

// Stop requests pid to terminate: Stop is a system message, processed
// ahead of any pending user messages, which then runs the
// Stopping->children-drain->Stopped sequence.
func (s *ActorSystem) Stop(pid *PID) {
	s.registry.Get(pid).SendSystemMessage(&Stop{})
}

func (s *ActorSystem) handleRootFailure(failure *Failure) {
	if s.config.DeveloperSupervisionLogging {
		s.logger.Warnf("root guardian handling failure from %s: %v", failure.Who, failure.Reason)
	}
	DefaultSupervisorStrategy().HandleFailure(s.rootProcess.ctx.outer(), failure.Who, failure.Stats, failure.Reason, failure.Message)
}

func (s *ActorSystem) restartStats(pid *PID) *RestartStatistics {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	rs, ok := s.stats[pid.ID]
	if !ok {
		rs = NewRestartStatistics()
		s.stats[pid.ID] = rs
	}
	return rs
}

func (s *ActorSystem) actorStopped(pid *PID) {
	s.statsMu.Lock()
	delete(s.stats, pid.ID)
	s.statsMu.Unlock()
}

// Shutdown stops the root guardian (cascading to every actor) and
// blocks until it — and thus everything below it — has terminated, or
// timeout elapses.
func (s *ActorSystem) Shutdown(timeout time.Duration) {
	if !s.stopping.CompareAndSwap(false, true) {
		return
	}
	s.Stop(s.root)

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.rootProcess.ctx.currentState() == stateStopped {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
}
