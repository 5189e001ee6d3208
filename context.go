package bollywood

import (
	"sync"
	"sync/atomic"
	"time"
)

// Context is the capability set handed to an actor's Receive, and to
// the top-level RootContext. Grounded directly on protoactor-go's
// actor_context.go (retrieved into the example pack as the ambiguity
// oracle for this spec), renamed to the teacher's idiom.
type Context interface {
	ActorSystem() *ActorSystem

	Self() *PID
	Parent() *PID
	Sender() *PID
	Message() interface{}
	Children() []*PID

	Send(target *PID, message interface{})
	Request(target *PID, message interface{})
	RequestFuture(target *PID, message interface{}, timeout time.Duration) *Future
	Respond(message interface{})
	// Reply is an alias for Respond, matching the request/response
	// idiom used by grain-style actors that track a RequestID.
	Reply(message interface{})
	RequestID() string
	Forward(target *PID)

	Spawn(props *Props) *PID
	SpawnPrefix(props *Props, prefix string) *PID
	SpawnNamed(props *Props, name string) (*PID, error)

	Watch(who *PID)
	Unwatch(who *PID)
	Stop(pid *PID)
	Poison(pid *PID)

	SetReceiveTimeout(d time.Duration)
	CancelReceiveTimeout()
	ReceiveTimeout() time.Duration

	ReenterAfter(f *Future, cont func(result interface{}, err error))
	Stash()

	RestartChildren(pids ...*PID)
	StopChildren(pids ...*PID)
	ResumeChildren(pids ...*PID)
	EscalateFailure(reason interface{}, message interface{})
}

type contextState int32

const (
	stateAlive contextState = iota
	stateRestarting
	stateStopping
	stateStopped
)

// actorContextExtras lazily holds the rarely-used parts of an actor's
// context (children set, watchers, receive-timeout timer, stash),
// mirroring protoactor-go's actorContextExtras split.
type actorContextExtras struct {
	mu                  sync.Mutex
	children            map[string]*PID
	watchers            map[string]*PID
	receiveTimeoutTimer *time.Timer
	stash               []interface{}
	decorated           Context
}

func newActorContextExtras() *actorContextExtras {
	return &actorContextExtras{
		children: make(map[string]*PID),
		watchers: make(map[string]*PID),
	}
}

func (e *actorContextExtras) addChild(pid *PID) {
	e.mu.Lock()
	e.children[pid.ID] = pid
	e.mu.Unlock()
}

func (e *actorContextExtras) removeChild(pid *PID) {
	e.mu.Lock()
	delete(e.children, pid.ID)
	e.mu.Unlock()
}

func (e *actorContextExtras) childList() []*PID {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*PID, 0, len(e.children))
	for _, p := range e.children {
		out = append(out, p)
	}
	return out
}

func (e *actorContextExtras) childCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.children)
}

func (e *actorContextExtras) addWatcher(pid *PID) {
	e.mu.Lock()
	e.watchers[pid.ID] = pid
	e.mu.Unlock()
}

func (e *actorContextExtras) removeWatcher(pid *PID) {
	e.mu.Lock()
	delete(e.watchers, pid.ID)
	e.mu.Unlock()
}

func (e *actorContextExtras) watcherList() []*PID {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*PID, 0, len(e.watchers))
	for _, p := range e.watchers {
		out = append(out, p)
	}
	return out
}

// actorContext implements Context and MessageInvoker. One instance per
// spawned actor, surviving across restarts (the Actor it wraps does
// not).
type actorContext struct {
	system *ActorSystem
	props  *Props

	self   *PID
	parent *PID

	actor Actor

	extrasOnce sync.Once
	extras     *actorContextExtras

	messageOrEnvelope interface{}

	receiveTimeout time.Duration

	state      int32 // contextState, accessed atomically
	generation uint64 // bumped on every incarnation; guards reentrancy

	startedAt time.Time
	lastWarn  int64 // unix nano of last start-deadline warning

	mailbox *Mailbox
}

func newActorContext(system *ActorSystem, props *Props, self, parent *PID) *actorContext {
	ctx := &actorContext{
		system: system,
		props:  props,
		self:   self,
		parent: parent,
	}
	ctx.incarnate()
	return ctx
}

func (ctx *actorContext) ensureExtras() *actorContextExtras {
	ctx.extrasOnce.Do(func() {
		ctx.extras = newActorContextExtras()
	})
	return ctx.extras
}

func (ctx *actorContext) outer() Context {
	if len(ctx.props.contextDecorators) == 0 {
		return ctx
	}
	extras := ctx.ensureExtras()
	extras.mu.Lock()
	defer extras.mu.Unlock()
	if extras.decorated == nil {
		extras.decorated = ctx.props.decorate(ctx)
	}
	return extras.decorated
}

func (ctx *actorContext) incarnate() {
	atomic.StoreInt32(&ctx.state, int32(stateAlive))
	atomic.AddUint64(&ctx.generation, 1)
	ctx.actor = ctx.props.produce()
	ctx.startedAt = time.Now()
}

func (ctx *actorContext) currentState() contextState {
	return contextState(atomic.LoadInt32(&ctx.state))
}

// --- Context interface ---

func (ctx *actorContext) ActorSystem() *ActorSystem { return ctx.system }
func (ctx *actorContext) Self() *PID                { return ctx.self }
func (ctx *actorContext) Parent() *PID               { return ctx.parent }
func (ctx *actorContext) Sender() *PID               { return unwrapSender(ctx.messageOrEnvelope) }
func (ctx *actorContext) Message() interface{}       { return unwrapMessage(ctx.messageOrEnvelope) }

func (ctx *actorContext) RequestID() string {
	if sender := ctx.Sender(); sender != nil {
		return sender.ID
	}
	return ""
}

func (ctx *actorContext) Children() []*PID {
	if ctx.extras == nil {
		return nil
	}
	return ctx.extras.childList()
}

func (ctx *actorContext) Send(target *PID, message interface{}) {
	if len(ctx.props.senderMiddleware) == 0 {
		ctx.system.sendUserMessage(target, message, ctx.self)
		return
	}
	chain := ctx.props.buildSendChain(func(_ Context, t *PID, e *messageEnvelope) {
		ctx.system.sendUserMessage(t, e.Message, e.Sender)
	})
	chain(ctx.outer(), target, &messageEnvelope{Sender: ctx.self, Message: message})
}

func (ctx *actorContext) Request(target *PID, message interface{}) {
	ctx.Send(target, message)
}

func (ctx *actorContext) RequestFuture(target *PID, message interface{}, timeout time.Duration) *Future {
	return ctx.system.requestFuture(target, message, ctx.self, timeout)
}

func (ctx *actorContext) Respond(message interface{}) {
	sender := ctx.Sender()
	if sender == nil {
		ctx.system.registry.PublishDeadLetter(nil, ctx.self, message)
		return
	}
	ctx.Send(sender, message)
}

func (ctx *actorContext) Reply(message interface{}) { ctx.Respond(message) }

func (ctx *actorContext) Forward(target *PID) {
	if _, ok := ctx.messageOrEnvelope.(SystemMessage); ok {
		ctx.system.logger.Errorf("system message cannot be forwarded: %T", ctx.messageOrEnvelope)
		return
	}
	ctx.system.registry.Get(target).SendUserMessage(ctx.Sender(), ctx.Message())
}

func (ctx *actorContext) Spawn(props *Props) *PID {
	pid, _ := ctx.SpawnNamed(props, ctx.system.registry.NextID())
	return pid
}

func (ctx *actorContext) SpawnPrefix(props *Props, prefix string) *PID {
	pid, _ := ctx.SpawnNamed(props, prefix+ctx.system.registry.NextID())
	return pid
}

func (ctx *actorContext) SpawnNamed(props *Props, name string) (*PID, error) {
	pid, err := ctx.system.spawn(props, name, ctx.self)
	if err != nil {
		return nil, err
	}
	ctx.ensureExtras().addChild(pid)
	return pid, nil
}

func (ctx *actorContext) Watch(who *PID) {
	ctx.system.registry.Get(who).SendSystemMessage(&Watch{Watcher: ctx.self})
}

func (ctx *actorContext) Unwatch(who *PID) {
	ctx.system.registry.Get(who).SendSystemMessage(&Unwatch{Watcher: ctx.self})
}

func (ctx *actorContext) Stop(pid *PID) {
	ctx.system.Stop(pid)
}

func (ctx *actorContext) Poison(pid *PID) {
	ctx.system.registry.Get(pid).SendUserMessage(ctx.self, PoisonPill{})
}

func (ctx *actorContext) SetReceiveTimeout(d time.Duration) {
	if d <= 0 {
		panic("bollywood: receive timeout must be > 0")
	}
	if d == ctx.receiveTimeout {
		return
	}
	if d < time.Millisecond {
		d = 0
	}
	ctx.receiveTimeout = d
	extras := ctx.ensureExtras()
	self := ctx.self
	gen := atomic.LoadUint64(&ctx.generation)
	if extras.receiveTimeoutTimer != nil {
		extras.receiveTimeoutTimer.Stop()
	}
	if d > 0 {
		extras.receiveTimeoutTimer = time.AfterFunc(d, func() {
			if atomic.LoadUint64(&ctx.generation) != gen {
				return
			}
			ctx.system.registry.Get(self).SendSystemMessage(&receiveTimeoutMessage{})
		})
	}
}

func (ctx *actorContext) CancelReceiveTimeout() {
	if ctx.extras == nil || ctx.extras.receiveTimeoutTimer == nil {
		return
	}
	ctx.extras.receiveTimeoutTimer.Stop()
	ctx.extras.receiveTimeoutTimer = nil
	ctx.receiveTimeout = 0
}

func (ctx *actorContext) ReceiveTimeout() time.Duration { return ctx.receiveTimeout }

func (ctx *actorContext) Stash() {
	extras := ctx.ensureExtras()
	extras.mu.Lock()
	extras.stash = append(extras.stash, ctx.Message())
	extras.mu.Unlock()
}

// ReenterAfter schedules cont as a system-message continuation once f
// completes. The original envelope is restored for the duration of
// cont; if a restart has occurred since capture (generation mismatch)
// the continuation is dropped, per spec.md §4.2/§9.
func (ctx *actorContext) ReenterAfter(f *Future, cont func(result interface{}, err error)) {
	capturedEnvelope, _ := ctx.messageOrEnvelope.(*messageEnvelope)
	if capturedEnvelope == nil {
		capturedEnvelope = &messageEnvelope{Sender: ctx.Sender(), Message: ctx.Message()}
	}
	gen := atomic.LoadUint64(&ctx.generation)
	self := ctx.self
	f.continueWith(func(result interface{}, err error) {
		ctx.system.registry.Get(self).SendSystemMessage(&continuation{
			fn:         func() { cont(result, err) },
			envelope:   capturedEnvelope,
			generation: gen,
		})
	})
}

func (ctx *actorContext) RestartChildren(pids ...*PID) {
	for _, pid := range pids {
		ctx.system.registry.Get(pid).SendSystemMessage(&Restart{})
	}
}

func (ctx *actorContext) StopChildren(pids ...*PID) {
	for _, pid := range pids {
		ctx.system.registry.Get(pid).SendSystemMessage(&Stop{})
	}
}

func (ctx *actorContext) ResumeChildren(pids ...*PID) {
	for _, pid := range pids {
		ctx.system.registry.Get(pid).SendSystemMessage(&ResumeMailbox{})
	}
}

func (ctx *actorContext) EscalateFailure(reason interface{}, message interface{}) {
	failure := &Failure{
		Who:     ctx.self,
		Reason:  reason,
		Stats:   ctx.restartStatistics(),
		Message: message,
	}
	if ctx.mailbox != nil {
		ctx.mailbox.Suspend()
	}
	if ctx.parent == nil {
		ctx.system.handleRootFailure(failure)
		return
	}
	ctx.system.registry.Get(ctx.parent).SendSystemMessage(failure)
}

func (ctx *actorContext) restartStatistics() *RestartStatistics {
	return ctx.system.restartStats(ctx.self)
}

// HandleMailboxFault logs a panic from the mailbox's own system-message
// dispatch and stops the actor directly, bypassing supervision: the
// fault is in bollywood's invoker, not in Receive, so there is nothing
// a restart strategy could meaningfully act on.
func (ctx *actorContext) HandleMailboxFault(reason interface{}, message interface{}) {
	fault := &MailboxFault{Who: ctx.self, Reason: reason, Message: message}
	ctx.system.logger.Errorf("%v", fault)
	if ctx.currentState() >= stateStopping {
		return
	}
	ctx.handleStop()
}

// --- MessageInvoker ---

func (ctx *actorContext) InvokeUserMessage(md interface{}) {
	if ctx.currentState() == stateStopped {
		target := ctx.self
		sender := unwrapSender(md)
		ctx.system.registry.PublishDeadLetter(target, sender, unwrapMessage(md))
		return
	}

	influenceTimeout := true
	if ctx.receiveTimeout > 0 {
		if _, ok := unwrapMessage(md).(NotInfluenceReceiveTimeout); ok {
			influenceTimeout = false
		}
		if influenceTimeout && ctx.extras != nil && ctx.extras.receiveTimeoutTimer != nil {
			ctx.extras.receiveTimeoutTimer.Stop()
		}
	}

	if _, ok := unwrapMessage(md).(PoisonPill); ok {
		ctx.system.Stop(ctx.self)
		return
	}

	ctx.processMessage(md)

	if ctx.receiveTimeout > 0 && influenceTimeout {
		ctx.ensureExtras()
		gen := atomic.LoadUint64(&ctx.generation)
		self := ctx.self
		d := ctx.receiveTimeout
		if ctx.extras.receiveTimeoutTimer != nil {
			ctx.extras.receiveTimeoutTimer.Reset(d)
		} else {
			ctx.extras.receiveTimeoutTimer = time.AfterFunc(d, func() {
				if atomic.LoadUint64(&ctx.generation) != gen {
					return
				}
				ctx.system.registry.Get(self).SendSystemMessage(&receiveTimeoutMessage{})
			})
		}
	}
}

func (ctx *actorContext) processMessage(m interface{}) {
	ctx.messageOrEnvelope = m
	defer func() { ctx.messageOrEnvelope = nil }()

	outer := ctx.outer()

	deliver := func() {
		ctx.actor.Receive(outer)
		if auto, ok := ctx.Message().(AutoRespond); ok {
			ctx.Respond(auto.GetAutoResponse(outer))
		}
	}

	if len(ctx.props.receiverMiddleware) == 0 {
		deliver()
		return
	}
	env, ok := m.(*messageEnvelope)
	if !ok {
		env = &messageEnvelope{Sender: ctx.Sender(), Message: ctx.Message()}
	}
	chain := ctx.props.buildReceiveChain(func(c Context, e *messageEnvelope) { deliver() })
	chain(outer, env)
}

func (ctx *actorContext) InvokeSystemMessage(message interface{}) {
	switch msg := message.(type) {
	case *continuation:
		if msg.generation != atomic.LoadUint64(&ctx.generation) {
			ctx.system.logger.Debugf("dropping stale continuation for %s", ctx.self)
			return
		}
		ctx.messageOrEnvelope = msg.envelope
		msg.fn()
		ctx.messageOrEnvelope = nil
	case *Started:
		ctx.checkStartDeadline(func() { ctx.InvokeUserMessage(msg) })
	case *Watch:
		ctx.handleWatch(msg)
	case *Unwatch:
		ctx.handleUnwatch(msg)
	case *Stop:
		ctx.handleStop()
	case *Terminated:
		ctx.handleTerminated(msg)
	case *Failure:
		ctx.handleFailure(msg)
	case *Restart:
		ctx.handleRestart()
	case *receiveTimeoutMessage:
		ctx.InvokeUserMessage(msg)
	default:
		ctx.system.logger.Warnf("unknown system message for %s: %T", ctx.self, message)
	}
}

func (ctx *actorContext) checkStartDeadline(run func()) {
	run()
	if ctx.props.startDeadline <= 0 {
		return
	}
	if elapsed := time.Since(ctx.startedAt); elapsed > ctx.props.startDeadline {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&ctx.lastWarn)
		if now-last >= int64(time.Second) {
			atomic.StoreInt64(&ctx.lastWarn, now)
			ctx.system.logger.Warnf("actor %s: Started handler exceeded start deadline (%v > %v)", ctx.self, elapsed, ctx.props.startDeadline)
		}
	}
}

func (ctx *actorContext) handleWatch(msg *Watch) {
	if ctx.currentState() >= stateStopping {
		ctx.system.registry.Get(msg.Watcher).SendSystemMessage(&Terminated{Who: ctx.self, Reason: "Stopped"})
		return
	}
	ctx.ensureExtras().addWatcher(msg.Watcher)
}

func (ctx *actorContext) handleUnwatch(msg *Unwatch) {
	if ctx.extras == nil {
		return
	}
	ctx.extras.removeWatcher(msg.Watcher)
}

func (ctx *actorContext) handleRestart() {
	atomic.StoreInt32(&ctx.state, int32(stateRestarting))
	ctx.InvokeUserMessage(&Restarting{})
	ctx.stopAllChildren()
	ctx.tryFinalize()
}

func (ctx *actorContext) handleStop() {
	if ctx.currentState() >= stateStopping {
		return
	}
	atomic.StoreInt32(&ctx.state, int32(stateStopping))
	ctx.InvokeUserMessage(&Stopping{})
	ctx.stopAllChildren()
	ctx.tryFinalize()
}

func (ctx *actorContext) handleTerminated(msg *Terminated) {
	if ctx.extras != nil {
		ctx.extras.removeChild(msg.Who)
	}
	ctx.InvokeUserMessage(msg)
	ctx.tryFinalize()
}

func (ctx *actorContext) handleFailure(msg *Failure) {
	if strategy, ok := ctx.actor.(SupervisorStrategy); ok {
		strategy.HandleFailure(ctx.outer(), msg.Who, msg.Stats, msg.Reason, msg.Message)
		return
	}
	ctx.props.supervisor.HandleFailure(ctx.outer(), msg.Who, msg.Stats, msg.Reason, msg.Message)
}

func (ctx *actorContext) stopAllChildren() {
	if ctx.extras == nil {
		return
	}
	for _, pid := range ctx.extras.childList() {
		ctx.system.registry.Get(pid).SendSystemMessage(&Stop{})
	}
}

func (ctx *actorContext) tryFinalize() {
	if ctx.extras != nil && ctx.extras.childCount() > 0 {
		return
	}
	ctx.cancelTimerForFinalize()

	switch ctx.currentState() {
	case stateRestarting:
		ctx.restart()
	case stateStopping:
		ctx.finalizeStop()
	}
}

func (ctx *actorContext) cancelTimerForFinalize() {
	if ctx.extras != nil && ctx.extras.receiveTimeoutTimer != nil {
		ctx.extras.receiveTimeoutTimer.Stop()
		ctx.extras.receiveTimeoutTimer = nil
	}
}

func (ctx *actorContext) restart() {
	ctx.incarnate()
	if ctx.mailbox != nil {
		ctx.mailbox.Resume()
	}
	ctx.checkStartDeadline(func() { ctx.InvokeUserMessage(&Started{}) })
	if ctx.extras != nil && len(ctx.extras.stash) > 0 {
		stash := ctx.extras.stash
		ctx.extras.stash = nil
		for _, msg := range stash {
			ctx.InvokeUserMessage(msg)
		}
	}
}

func (ctx *actorContext) finalizeStop() {
	ctx.system.registry.Remove(ctx.self)
	ctx.InvokeUserMessage(&Stopped{})
	atomic.StoreInt32(&ctx.state, int32(stateStopped))

	terminated := &Terminated{Who: ctx.self, Reason: "Stopped"}
	if ctx.extras != nil {
		for _, watcher := range ctx.extras.watcherList() {
			ctx.system.registry.Get(watcher).SendSystemMessage(terminated)
		}
	}
	if ctx.parent != nil {
		ctx.system.registry.Get(ctx.parent).SendSystemMessage(terminated)
	}
	ctx.system.actorStopped(ctx.self)
}

