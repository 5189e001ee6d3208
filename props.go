package bollywood

import "time"

// Producer creates a new Actor instance; called once at spawn time and
// again on every restart.
type Producer func() Actor

// MailboxProducer builds a Mailbox for a newly spawned actor. The
// default is an unbounded dual-queue mailbox; bounded variants fail
// posts with ErrMailboxFull once full.
type MailboxProducer func() *Mailbox

// ReceiverFunc is one link of the receiver middleware chain: it is
// handed the envelope and must decide whether/how to forward it
// (typically to the next link, ending at the actor's own Receive).
type ReceiverFunc func(ctx Context, envelope *messageEnvelope)

// ReceiverMiddleware wraps a ReceiverFunc with another.
type ReceiverMiddleware func(next ReceiverFunc) ReceiverFunc

// SenderFunc is one link of the sender middleware chain.
type SenderFunc func(ctx Context, target *PID, envelope *messageEnvelope)

// SenderMiddleware wraps a SenderFunc with another.
type SenderMiddleware func(next SenderFunc) SenderFunc

// ContextDecorator wraps an inner Context to intercept
// Receive/Send/Ask without virtual-inheritance; the actor's own Receive
// sees the outermost decorator.
type ContextDecorator func(inner Context) Context

// Props is the immutable recipe used to construct an actor.
type Props struct {
	producer   Producer
	mailbox    MailboxProducer
	supervisor SupervisorStrategy

	receiverMiddleware []ReceiverMiddleware
	senderMiddleware   []SenderMiddleware
	contextDecorators  []ContextDecorator

	startDeadline time.Duration
}

// PropsOption configures a Props at construction time.
type PropsOption func(*Props)

// NewProps builds a Props around a Producer, applying options in order.
func NewProps(producer Producer, opts ...PropsOption) *Props {
	if producer == nil {
		panic("bollywood: producer cannot be nil")
	}
	p := &Props{
		producer:      producer,
		mailbox:       func() *Mailbox { return NewMailbox(defaultThroughput) },
		supervisor:    DefaultSupervisorStrategy(),
		startDeadline: 0,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithMailboxProducer overrides the default unbounded mailbox.
func WithMailboxProducer(mp MailboxProducer) PropsOption {
	return func(p *Props) { p.mailbox = mp }
}

// WithSupervisor sets the strategy this Props' spawned actor uses for
// its own children's failures.
func WithSupervisor(s SupervisorStrategy) PropsOption {
	return func(p *Props) { p.supervisor = s }
}

// WithReceiverMiddleware appends a receiver middleware link.
func WithReceiverMiddleware(mw ...ReceiverMiddleware) PropsOption {
	return func(p *Props) { p.receiverMiddleware = append(p.receiverMiddleware, mw...) }
}

// WithSenderMiddleware appends a sender middleware link.
func WithSenderMiddleware(mw ...SenderMiddleware) PropsOption {
	return func(p *Props) { p.senderMiddleware = append(p.senderMiddleware, mw...) }
}

// WithContextDecorator appends a context decorator; decorators are
// applied outermost-last, i.e. the last one added is what the actor's
// Receive observes as ctx.
func WithContextDecorator(d ...ContextDecorator) PropsOption {
	return func(p *Props) { p.contextDecorators = append(p.contextDecorators, d...) }
}

// WithStartDeadline sets the warning threshold for a slow Started
// handler.
func WithStartDeadline(d time.Duration) PropsOption {
	return func(p *Props) { p.startDeadline = d }
}

func (p *Props) produce() Actor {
	return p.producer()
}

func (p *Props) newMailbox() *Mailbox {
	return p.mailbox()
}

func (p *Props) buildReceiveChain(tail ReceiverFunc) ReceiverFunc {
	chain := tail
	for i := len(p.receiverMiddleware) - 1; i >= 0; i-- {
		chain = p.receiverMiddleware[i](chain)
	}
	return chain
}

func (p *Props) buildSendChain(tail SenderFunc) SenderFunc {
	chain := tail
	for i := len(p.senderMiddleware) - 1; i >= 0; i-- {
		chain = p.senderMiddleware[i](chain)
	}
	return chain
}

func (p *Props) decorate(inner Context) Context {
	ctx := inner
	for _, d := range p.contextDecorators {
		ctx = d(ctx)
	}
	return ctx
}
