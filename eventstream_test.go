package bollywood

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type orderEventA struct{ n int }
type orderEventB struct{ n int }

func TestEventStream_DispatchesByConcreteType(t *testing.T) {
	bus := NewEventStream(nil)

	var mu sync.Mutex
	var gotA, gotB []int

	Subscribe(bus, func(e orderEventA) {
		mu.Lock()
		gotA = append(gotA, e.n)
		mu.Unlock()
	})
	Subscribe(bus, func(e orderEventB) {
		mu.Lock()
		gotB = append(gotB, e.n)
		mu.Unlock()
	})

	bus.Publish(orderEventA{n: 1})
	bus.Publish(orderEventB{n: 2})
	bus.Publish(orderEventA{n: 3})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 3}, gotA)
	assert.Equal(t, []int{2}, gotB)
}

func TestEventStream_PublishesInSubscriberOrder(t *testing.T) {
	bus := NewEventStream(nil)

	var mu sync.Mutex
	var order []string

	Subscribe(bus, func(e orderEventA) {
		mu.Lock()
		order = append(order, "first")
		mu.Unlock()
	})
	Subscribe(bus, func(e orderEventA) {
		mu.Lock()
		order = append(order, "second")
		mu.Unlock()
	})

	bus.Publish(orderEventA{n: 1})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestEventStream_UnsubscribeStopsDelivery(t *testing.T) {
	bus := NewEventStream(nil)

	var mu sync.Mutex
	count := 0
	sub := Subscribe(bus, func(e orderEventA) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	bus.Publish(orderEventA{n: 1})
	sub.Unsubscribe()
	bus.Publish(orderEventA{n: 2})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestEventStream_HandlerPanicIsRecoveredAndDoesNotBlockOthers(t *testing.T) {
	bus := NewEventStream(nil)

	var mu sync.Mutex
	delivered := false

	Subscribe(bus, func(e orderEventA) {
		panic("handler blew up")
	})
	Subscribe(bus, func(e orderEventA) {
		mu.Lock()
		delivered = true
		mu.Unlock()
	})

	assert.NotPanics(t, func() {
		bus.Publish(orderEventA{n: 1})
	})

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, delivered, "a later subscriber must still run after an earlier one panics")
}
