package bollywood

// SystemMessage tags the control signals that are always delivered
// ahead of user messages within a single mailbox run.
type SystemMessage interface {
	systemMessage()
}

type systemMessageBase struct{}

func (systemMessageBase) systemMessage() {}

// Started is delivered once after an actor (re)incarnates, before any
// user message.
type Started struct{ systemMessageBase }

// Restart tells an actor's context to begin the restart sequence:
// notify the user actor (Restarting), stop children, await them, then
// re-incarnate and deliver Started again.
type Restart struct{ systemMessageBase }

// Restarting is delivered to the user actor when a restart begins, so
// it can release resources before being disposed.
type Restarting struct{ systemMessageBase }

// Stop requests immediate, graceful termination: Stopping is delivered
// to this actor, its children are stopped and awaited, and Stopped is
// delivered last.
type Stop struct{ systemMessageBase }

// Stopping is delivered to the user actor once Stop/PoisonPill has been
// accepted and before children are asked to stop.
type Stopping struct{ systemMessageBase }

// Stopped is the final message delivered to an actor, after all its
// children have terminated and it has unregistered.
type Stopped struct{ systemMessageBase }

// PoisonPill is a user-queue message: it stops the actor only after
// every user message enqueued ahead of it has been processed.
type PoisonPill struct{}

// Watch registers Watcher to receive a Terminated when Who stops.
type Watch struct {
	systemMessageBase
	Watcher *PID
}

// Unwatch removes a previously registered watch.
type Unwatch struct {
	systemMessageBase
	Watcher *PID
}

// Terminated is delivered to every watcher and to the parent, exactly
// once each, when an actor finishes stopping.
type Terminated struct {
	systemMessageBase
	Who    *PID
	Reason string
}

// Failure is escalated from a child's context to its parent (or, with
// no parent, to the root guardian) when a user Receive panics. A panic
// inside a system handler is handled as a MailboxFault instead and
// never becomes a Failure.
type Failure struct {
	systemMessageBase
	Who     *PID
	Reason  interface{}
	Stats   *RestartStatistics
	Message interface{}
}

// SuspendMailbox stops user-message delivery; only system messages are
// processed until ResumeMailbox.
type SuspendMailbox struct{ systemMessageBase }

// ResumeMailbox resumes user-message delivery.
type ResumeMailbox struct{ systemMessageBase }

// receiveTimeoutMessage fires when the idle timer elapses.
type receiveTimeoutMessage struct{ systemMessageBase }

// ReceiveTimeout is the user-visible zero-value alias delivered to
// Receive when the idle timer fires.
type ReceiveTimeout = receiveTimeoutMessage

// NotInfluenceReceiveTimeout is implemented by user messages that
// should not reset the receive-timeout timer (e.g. internal pings).
type NotInfluenceReceiveTimeout interface {
	NotInfluenceReceiveTimeout()
}

// AutoRespond is implemented by messages that carry their own reply;
// the context both invokes Receive and auto-responds with GetAutoResponse().
type AutoRespond interface {
	GetAutoResponse(ctx Context) interface{}
}

// continuation carries a captured envelope across a suspension point
// for reenter_after; it is delivered as a system message.
type continuation struct {
	systemMessageBase
	fn         func()
	envelope   *messageEnvelope
	generation uint64
}

// messageEnvelope wraps a user message with its sender. When
// reenter_after captures one, the reentrancy generation stamp is kept
// on the continuation, not on the envelope.
type messageEnvelope struct {
	Sender  *PID
	Message interface{}
}

func unwrapMessage(m interface{}) interface{} {
	if env, ok := m.(*messageEnvelope); ok {
		return env.Message
	}
	return m
}

func unwrapSender(m interface{}) *PID {
	if env, ok := m.(*messageEnvelope); ok {
		return env.Sender
	}
	return nil
}
