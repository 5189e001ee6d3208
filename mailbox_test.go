package bollywood

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingInvoker struct {
	mu           sync.Mutex
	system       []interface{}
	user         []interface{}
	escalate     []interface{}
	mailboxFault []interface{}
	done         chan struct{}
	wantUser     int
}

func newRecordingInvoker(wantUser int) *recordingInvoker {
	return &recordingInvoker{done: make(chan struct{}, 1), wantUser: wantUser}
}

func (r *recordingInvoker) InvokeSystemMessage(msg interface{}) {
	r.mu.Lock()
	r.system = append(r.system, msg)
	r.mu.Unlock()
}

func (r *recordingInvoker) InvokeUserMessage(msg interface{}) {
	r.mu.Lock()
	r.user = append(r.user, msg)
	done := len(r.user) >= r.wantUser
	r.mu.Unlock()
	if done {
		select {
		case r.done <- struct{}{}:
		default:
		}
	}
}

func (r *recordingInvoker) EscalateFailure(reason interface{}, msg interface{}) {
	r.mu.Lock()
	r.escalate = append(r.escalate, reason)
	r.mu.Unlock()
}

func (r *recordingInvoker) HandleMailboxFault(reason interface{}, msg interface{}) {
	r.mu.Lock()
	r.mailboxFault = append(r.mailboxFault, reason)
	r.mu.Unlock()
}

func (r *recordingInvoker) userMessages() []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]interface{}{}, r.user...)
}

func TestMailbox_SystemBeforeUser(t *testing.T) {
	invoker := newRecordingInvoker(1)
	mb := NewMailbox(10)
	mb.RegisterHandlers(invoker, GoroutineDispatcher{})

	mb.PostUser("user-1")
	mb.PostSystem("system-1")

	select {
	case <-invoker.done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	invoker.mu.Lock()
	defer invoker.mu.Unlock()
	assert.Equal(t, []interface{}{"system-1"}, invoker.system)
	assert.Equal(t, []interface{}{"user-1"}, invoker.user)
}

func TestMailbox_PreservesUserOrder(t *testing.T) {
	invoker := newRecordingInvoker(5)
	mb := NewMailbox(10)
	mb.RegisterHandlers(invoker, GoroutineDispatcher{})

	for i := 0; i < 5; i++ {
		mb.PostUser(i)
	}

	select {
	case <-invoker.done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	assert.Equal(t, []interface{}{0, 1, 2, 3, 4}, invoker.userMessages())
}

// blockingInvoker holds its first user message "in flight" forever so
// capacity checks below observe a mailbox that genuinely has queued,
// undelivered messages rather than racing the dispatch goroutine.
type blockingInvoker struct {
	block chan struct{}
}

func (b *blockingInvoker) InvokeSystemMessage(msg interface{})        {}
func (b *blockingInvoker) InvokeUserMessage(msg interface{})          { <-b.block }
func (b *blockingInvoker) EscalateFailure(reason, msg interface{})    {}
func (b *blockingInvoker) HandleMailboxFault(reason, msg interface{}) {}

func TestMailbox_BoundedRejectsWhenFull(t *testing.T) {
	mb := NewBoundedMailbox(10, 1)
	blocker := &blockingInvoker{block: make(chan struct{})}
	mb.RegisterHandlers(blocker, GoroutineDispatcher{})

	assert.NoError(t, mb.PostUser("a"))
	time.Sleep(20 * time.Millisecond) // let "a" be dequeued and block in flight

	assert.NoError(t, mb.PostUser("b"))
	err := mb.PostUser("c")
	assert.ErrorIs(t, err, ErrMailboxFull)

	close(blocker.block)
}

func TestMailbox_SuspendBlocksUserDrain(t *testing.T) {
	invoker := newRecordingInvoker(1)
	mb := NewMailbox(10)
	mb.RegisterHandlers(invoker, GoroutineDispatcher{})

	mb.Suspend()
	mb.PostUser("queued")
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, invoker.userMessages())

	mb.Resume()
	select {
	case <-invoker.done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery after resume")
	}
	assert.Equal(t, []interface{}{"queued"}, invoker.userMessages())
}

func TestMailbox_EscalatesOnPanic(t *testing.T) {
	invoker := newRecordingInvoker(0)
	mb := NewMailbox(10)
	panicker := &panicInvoker{recordingInvoker: invoker}
	mb.RegisterHandlers(panicker, GoroutineDispatcher{})

	mb.PostUser("boom")

	assert.Eventually(t, func() bool {
		invoker.mu.Lock()
		defer invoker.mu.Unlock()
		return len(invoker.escalate) == 1
	}, time.Second, 10*time.Millisecond)
}

type panicInvoker struct {
	*recordingInvoker
}

func (p *panicInvoker) InvokeUserMessage(msg interface{}) {
	panic("boom")
}

func TestMailbox_SystemPanicIsMailboxFaultNotEscalation(t *testing.T) {
	invoker := newRecordingInvoker(0)
	mb := NewMailbox(10)
	panicker := &systemPanicInvoker{recordingInvoker: invoker}
	mb.RegisterHandlers(panicker, GoroutineDispatcher{})

	mb.PostSystem("boom")

	assert.Eventually(t, func() bool {
		invoker.mu.Lock()
		defer invoker.mu.Unlock()
		return len(invoker.mailboxFault) == 1
	}, time.Second, 10*time.Millisecond)

	invoker.mu.Lock()
	defer invoker.mu.Unlock()
	assert.Empty(t, invoker.escalate, "a system-invoker panic must not go through ordinary supervision escalation")
}

type systemPanicInvoker struct {
	*recordingInvoker
}

func (p *systemPanicInvoker) InvokeSystemMessage(msg interface{}) {
	panic("boom")
}
