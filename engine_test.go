package bollywood

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoActor struct{}

func (echoActor) Receive(ctx Context) {
	switch ctx.Message().(type) {
	case *Started, *Stopping, *Stopped:
		return
	default:
		ctx.Respond(ctx.Message())
	}
}

func TestActorSystem_SpawnAndAsk(t *testing.T) {
	system := NewActorSystem()
	defer system.Shutdown(time.Second)

	pid := system.Spawn(NewProps(func() Actor { return echoActor{} }))
	require.NotNil(t, pid)

	future := system.Root().RequestFuture(pid, "hello", time.Second)
	result, err := future.Wait()
	require.NoError(t, err)
	assert.Equal(t, "hello", result)
}

func TestActorSystem_SpawnNamedRejectsDuplicate(t *testing.T) {
	system := NewActorSystem()
	defer system.Shutdown(time.Second)

	_, err := system.SpawnNamed(NewProps(func() Actor { return echoActor{} }), "dup")
	require.NoError(t, err)

	_, err = system.SpawnNamed(NewProps(func() Actor { return echoActor{} }), "dup")
	assert.ErrorIs(t, err, ErrNameExists)
}

func TestActorSystem_SendToUnknownPIDPublishesDeadLetter(t *testing.T) {
	system := NewActorSystem()
	defer system.Shutdown(time.Second)

	events := make(chan DeadLetterEvent, 1)
	sub := Subscribe(system.EventStream(), func(e DeadLetterEvent) {
		select {
		case events <- e:
		default:
		}
	})
	defer sub.Unsubscribe()

	ghost := NewPID(system.Address(), "$does-not-exist")
	system.Send(ghost, "are you there?")

	select {
	case e := <-events:
		assert.Equal(t, "are you there?", e.Message)
		assert.True(t, e.PID.Equal(ghost))
	case <-time.After(time.Second):
		t.Fatal("expected a dead-letter event")
	}
}

func TestActorSystem_AskTimesOutWhenNoReply(t *testing.T) {
	system := NewActorSystem()
	defer system.Shutdown(time.Second)

	silent := system.Spawn(NewProps(func() Actor {
		return ActorFunc(func(ctx Context) {})
	}))

	future := system.Root().RequestFuture(silent, "ping", 20*time.Millisecond)
	_, err := future.Wait()
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestActorSystem_PoisonStopsActor(t *testing.T) {
	system := NewActorSystem()
	defer system.Shutdown(time.Second)

	pid := system.Spawn(NewProps(func() Actor { return echoActor{} }))
	system.Root().Poison(pid)

	assert.Eventually(t, func() bool {
		_, ok := system.Registry().processes.Load(pid.ID)
		return !ok
	}, time.Second, 10*time.Millisecond)
}

// gatedRecorder records every user message it receives and blocks
// indefinitely on its first one, so a test can enqueue a whole batch
// behind it before the mailbox resumes draining.
type gatedRecorder struct {
	mu      *sync.Mutex
	seen    *[]interface{}
	unblock chan struct{}
}

func (g *gatedRecorder) Receive(ctx Context) {
	switch msg := ctx.Message().(type) {
	case *Started, *Stopping, *Stopped:
		return
	default:
		g.mu.Lock()
		*g.seen = append(*g.seen, msg)
		g.mu.Unlock()
		if msg == "A" {
			<-g.unblock
		}
	}
}

func TestMailbox_PoisonPillMidBatchDeadLettersTrailingMessages(t *testing.T) {
	system := NewActorSystem()
	defer system.Shutdown(time.Second)

	var mu sync.Mutex
	seen := []interface{}{}
	unblock := make(chan struct{})

	pid := system.Spawn(NewProps(func() Actor {
		return &gatedRecorder{mu: &mu, seen: &seen, unblock: unblock}
	}))

	deadLetters := make(chan DeadLetterEvent, 1)
	sub := Subscribe(system.EventStream(), func(e DeadLetterEvent) {
		select {
		case deadLetters <- e:
		default:
		}
	})
	defer sub.Unsubscribe()

	system.Send(pid, "A")
	time.Sleep(20 * time.Millisecond) // let the mailbox block inside Receive("A")

	system.Send(pid, "B")
	system.Root().Poison(pid)
	system.Send(pid, "C")

	close(unblock)

	select {
	case e := <-deadLetters:
		assert.Equal(t, "C", e.Message)
	case <-time.After(time.Second):
		t.Fatal("expected C, queued behind the PoisonPill, to be dead-lettered")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []interface{}{"A", "B"}, seen, "only messages ahead of the PoisonPill may reach Receive")
}

func TestActorSystem_WatchNotifiesOnTermination(t *testing.T) {
	system := NewActorSystem()
	defer system.Shutdown(time.Second)

	child := system.Spawn(NewProps(func() Actor { return echoActor{} }))

	notify := make(chan *Terminated, 1)
	watcher := system.Spawn(NewProps(func() Actor {
		return ActorFunc(func(ctx Context) {
			switch msg := ctx.Message().(type) {
			case *Started:
				ctx.Watch(child)
			case *Terminated:
				select {
				case notify <- msg:
				default:
				}
			}
		})
	}))
	_ = watcher
	time.Sleep(20 * time.Millisecond)

	system.Stop(child)

	select {
	case terminated := <-notify:
		assert.True(t, terminated.Who.Equal(child))
	case <-time.After(time.Second):
		t.Fatal("expected a Terminated notification")
	}
}
