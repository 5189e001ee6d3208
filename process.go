package bollywood

// process is the concrete Process implementation backing a locally
// spawned actor: a PID's cached handle, a mailbox, and the
// actorContext the mailbox dispatches into. Grounded on the teacher's
// process.go (goroutine-per-actor, panic-recovery-in-run), generalized
// to delegate lifecycle handling to actorContext's state machine
// instead of inlining it in the run loop.
type process struct {
	pid     *PID
	mailbox *Mailbox
	ctx     *actorContext
}

func newProcess(system *ActorSystem, props *Props, pid, parent *PID) *process {
	ctx := newActorContext(system, props, pid, parent)
	mb := props.newMailbox()
	p := &process{pid: pid, mailbox: mb, ctx: ctx}
	ctx.mailbox = mb
	mb.RegisterHandlers(ctx, GoroutineDispatcher{})
	return p
}

func (p *process) SendUserMessage(sender *PID, message interface{}) {
	env := &messageEnvelope{Sender: sender, Message: message}
	if err := p.mailbox.PostUser(env); err != nil {
		p.ctx.system.registry.PublishDeadLetter(p.pid, sender, message)
	}
}

func (p *process) SendSystemMessage(message interface{}) {
	p.mailbox.PostSystem(message)
}
