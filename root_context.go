package bollywood

import "time"

// rootContext is the parentless Context user code obtains from
// ActorSystem.Root() to spawn top-level actors and issue asks without
// being inside an actor's Receive. Grounded on protoactor-go's
// RootContext, layered directly over ActorSystem instead of an
// internal actorContext (it has no mailbox, no children set of its
// own — every Spawn call is parented under the root guardian).
type rootContext struct {
	system *ActorSystem
}

func newRootContext(system *ActorSystem) Context {
	return &rootContext{system: system}
}

func (r *rootContext) ActorSystem() *ActorSystem { return r.system }
func (r *rootContext) Self() *PID                { return r.system.root }
func (r *rootContext) Parent() *PID               { return nil }
func (r *rootContext) Sender() *PID               { return nil }
func (r *rootContext) Message() interface{}       { return nil }
func (r *rootContext) Children() []*PID           { return r.system.rootProcess.ctx.Children() }

// Send bypasses any sender middleware chain: the root guardian's Props
// is internal and not user-configurable, so there is never a chain to
// run here. Sender middleware is an actorContext.Send concern.
func (r *rootContext) Send(target *PID, message interface{}) {
	r.system.sendUserMessage(target, message, nil)
}

func (r *rootContext) Request(target *PID, message interface{}) {
	r.Send(target, message)
}

func (r *rootContext) RequestFuture(target *PID, message interface{}, timeout time.Duration) *Future {
	return r.system.requestFuture(target, message, nil, timeout)
}

func (r *rootContext) Respond(message interface{}) {
	r.system.registry.PublishDeadLetter(nil, nil, message)
}

func (r *rootContext) Reply(message interface{}) { r.Respond(message) }

func (r *rootContext) RequestID() string { return "" }

func (r *rootContext) Forward(target *PID) {
	r.system.Logger().Errorf("RootContext.Forward has no captured message to forward")
}

func (r *rootContext) Spawn(props *Props) *PID {
	return r.system.Spawn(props)
}

func (r *rootContext) SpawnPrefix(props *Props, prefix string) *PID {
	pid, _ := r.system.SpawnNamed(props, prefix+r.system.registry.NextID())
	return pid
}

func (r *rootContext) SpawnNamed(props *Props, name string) (*PID, error) {
	return r.system.SpawnNamed(props, name)
}

func (r *rootContext) Watch(who *PID) {
	r.system.registry.Get(who).SendSystemMessage(&Watch{Watcher: r.system.root})
}

func (r *rootContext) Unwatch(who *PID) {
	r.system.registry.Get(who).SendSystemMessage(&Unwatch{Watcher: r.system.root})
}

func (r *rootContext) Stop(pid *PID)   { r.system.Stop(pid) }
func (r *rootContext) Poison(pid *PID) { r.system.registry.Get(pid).SendUserMessage(nil, PoisonPill{}) }

func (r *rootContext) SetReceiveTimeout(time.Duration) {
	panic("bollywood: RootContext has no receive loop to arm a timeout against")
}
func (r *rootContext) CancelReceiveTimeout()      {}
func (r *rootContext) ReceiveTimeout() time.Duration { return 0 }

func (r *rootContext) ReenterAfter(f *Future, cont func(result interface{}, err error)) {
	f.continueWith(cont)
}

func (r *rootContext) Stash() {
	r.system.Logger().Errorf("RootContext.Stash called outside of an actor receive loop")
}

func (r *rootContext) RestartChildren(pids ...*PID) {
	for _, pid := range pids {
		r.system.registry.Get(pid).SendSystemMessage(&Restart{})
	}
}

func (r *rootContext) StopChildren(pids ...*PID) {
	for _, pid := range pids {
		r.system.Stop(pid)
	}
}

func (r *rootContext) ResumeChildren(pids ...*PID) {
	for _, pid := range pids {
		r.system.registry.Get(pid).SendSystemMessage(&ResumeMailbox{})
	}
}

func (r *rootContext) EscalateFailure(reason interface{}, message interface{}) {
	r.system.handleRootFailure(&Failure{Who: r.system.root, Reason: reason, Message: message, Stats: NewRestartStatistics()})
}
