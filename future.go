package bollywood

import (
	"sync"
	"time"
)

// Future is a one-shot PID whose process completes on the first
// reply, a deadline, or a dead-letter delivery. Grounded on
// protoactor-go's Future/RequestFuture (the oracle file referenced in
// SPEC_FULL.md), generalized per spec.md §4.5.
type Future struct {
	system *ActorSystem
	pid    *PID
	proc   *futureProcess

	mu            sync.Mutex
	completed     bool
	result        interface{}
	err           error
	done          chan struct{}
	continuations []func(interface{}, error)
	timer         *time.Timer
}

func newFuture(system *ActorSystem, timeout time.Duration) *Future {
	f := &Future{system: system, done: make(chan struct{})}
	f.proc = &futureProcess{future: f}
	pid := &PID{Address: system.address, ID: system.registry.NextID()}
	// best-effort register; a collision here is vanishingly unlikely
	// given NextID's uuid suffix, but if it happens the future simply
	// never resolves from that PID and times out.
	_ = system.registry.Add(pid, f.proc)
	pid.ref(nil)
	f.pid = pid

	if timeout > 0 {
		f.timer = time.AfterFunc(timeout, func() {
			f.complete(nil, ErrTimeout)
		})
	}
	return f
}

// PID returns the one-shot address replies should be sent to.
func (f *Future) PID() *PID { return f.pid }

func (f *Future) complete(result interface{}, err error) {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return
	}
	f.completed = true
	f.result, f.err = result, err
	conts := f.continuations
	f.continuations = nil
	f.mu.Unlock()

	if f.timer != nil {
		f.timer.Stop()
	}
	f.system.registry.Remove(f.pid)
	close(f.done)

	for _, c := range conts {
		c(result, err)
	}
}

// Wait blocks until the future completes or its own deadline elapses.
func (f *Future) Wait() (interface{}, error) {
	<-f.done
	return f.result, f.err
}

// continueWith invokes fn when the future completes; if it already
// has, fn runs synchronously.
func (f *Future) continueWith(fn func(result interface{}, err error)) {
	f.mu.Lock()
	if f.completed {
		result, err := f.result, f.err
		f.mu.Unlock()
		fn(result, err)
		return
	}
	f.continuations = append(f.continuations, fn)
	f.mu.Unlock()
}

type futureProcess struct {
	future *Future
}

func (p *futureProcess) SendUserMessage(sender *PID, message interface{}) {
	p.future.complete(message, nil)
}

func (p *futureProcess) SendSystemMessage(message interface{}) {
	if _, ok := message.(*Terminated); ok {
		p.future.complete(nil, ErrDeadLetter)
	}
}

// Ask sends message to target and blocks (up to timeout) for the first
// reply, type-asserted to T. Ask is a free function rather than a
// Context/ActorSystem method so it can be used uniformly from actor
// code, RootContext, and the cluster layer, matching spec.md §4.2's
// generic ask<T> signature.
func Ask[T any](ctx Context, target *PID, message interface{}, timeout time.Duration) (T, error) {
	var zero T
	future := ctx.RequestFuture(target, message, timeout)
	result, err := future.Wait()
	if err != nil {
		return zero, err
	}
	if grainErr, ok := result.(*GrainError); ok {
		return zero, grainErr
	}
	typed, ok := result.(T)
	if !ok {
		return zero, &GrainError{Code: "type_mismatch", Message: "unexpected reply type"}
	}
	return typed, nil
}
