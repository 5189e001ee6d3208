package bollywood

import "fmt"

// Sentinel error kinds, per the error handling policy: within an actor,
// failures become supervision events and never unwind the mailbox loop;
// across asks and cluster requests, they are returned as typed values.
var (
	// ErrNameExists is returned when Spawn is given a name already
	// registered in the ActorSystem's process registry; names are unique
	// system-wide, not per parent.
	ErrNameExists = fmt.Errorf("bollywood: name already exists")

	// ErrMailboxFull is returned by bounded mailbox variants when a post
	// would exceed capacity.
	ErrMailboxFull = fmt.Errorf("bollywood: mailbox full")

	// ErrDeadLetter is returned by a future whose target PID could not
	// be resolved, or which received an explicit dead-letter delivery.
	ErrDeadLetter = fmt.Errorf("bollywood: dead letter")

	// ErrTimeout is returned by a future or cluster request whose
	// deadline elapsed before a reply arrived.
	ErrTimeout = fmt.Errorf("bollywood: ask timed out")

	// ErrIdentityUnavailable is returned once a cluster request has
	// exhausted its retry budget.
	ErrIdentityUnavailable = fmt.Errorf("bollywood: cluster identity unavailable")

	// ErrMemberBlocked is returned when a send targets a member
	// currently on the block list.
	ErrMemberBlocked = fmt.Errorf("bollywood: member blocked")

	// ErrSystemStopping is returned by Spawn once the ActorSystem has
	// begun shutting down.
	ErrSystemStopping = fmt.Errorf("bollywood: system is stopping")
)

// ActorFailure is an error value describing a failed user Receive. The
// runtime's own escalation path does not build it: failures travel to
// supervisors as Failure system messages.
type ActorFailure struct {
	Who    *PID
	Reason interface{}
	Stack  string
	Message interface{}
}

func (f *ActorFailure) Error() string {
	return fmt.Sprintf("actor %s failed: %v", f.Who, f.Reason)
}

// MailboxFault is a panic raised by the mailbox invoker itself while
// handling a system message (Stop, Watch, Restart, ...), as opposed to
// a panic from the actor's own Receive. It never reaches a supervisor:
// the actor that produced it is logged and stopped directly, since the
// fault is in bollywood's own dispatch rather than in user code a
// restart could plausibly fix.
type MailboxFault struct {
	Who     *PID
	Reason  interface{}
	Message interface{}
}

func (f *MailboxFault) Error() string {
	return fmt.Sprintf("mailbox fault in %s: %v", f.Who, f.Reason)
}

// GrainError is a user-raised error from a virtual actor (grain),
// propagated verbatim to the calling cluster.request, code preserved.
type GrainError struct {
	Code    string
	Message string
}

func (e *GrainError) Error() string {
	return fmt.Sprintf("grain error [%s]: %s", e.Code, e.Message)
}
