package bollywood

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// Property tests for the quantified invariants that a table of fixed
// examples can't pin down: backoff bounds hold for ANY input, not just
// the handful of values a unit test happens to pick.

func TestProperty_BackoffDelayNeverExceedsCapPlusJitter(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 64).Draw(t, "n")
		capMillis := rapid.IntRange(1, 60_000).Draw(t, "capMillis")
		capDelay := time.Duration(capMillis) * time.Millisecond

		d := BackoffDelay(n, capDelay)

		if d < 0 {
			t.Fatalf("backoff delay must never be negative, got %v", d)
		}
		if d > capDelay+capDelay/4 {
			t.Fatalf("backoff delay %v exceeds cap %v plus 25%% jitter", d, capDelay)
		}
	})
}

func TestProperty_BackoffDelayLowerBoundGrowsMonotonically(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capDelay := 10 * time.Second
		small := rapid.IntRange(0, 10).Draw(t, "small")
		big := small + rapid.IntRange(1, 10).Draw(t, "delta")

		// Jitter makes a comparison of two raw delays noisy, but it only
		// ever adds to the base: so BackoffDelay for the later failure
		// count must never fall below the jitter-free base of the
		// earlier one, up to the cap.
		lowerSmall := minDuration(pow2Seconds(small), capDelay)
		delayBig := BackoffDelay(big, capDelay)

		if lowerSmall > delayBig {
			t.Fatalf("backoff delay must not shrink as failures accumulate: base for n=%d is %v, delay for n=%d is %v", small, lowerSmall, big, delayBig)
		}
	})
}

func pow2Seconds(n int) time.Duration {
	d := time.Second
	for i := 0; i < n; i++ {
		d *= 2
		if d > time.Hour {
			return time.Hour
		}
	}
	return d
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

func TestProperty_ConsistentHashLogicIsStableForAnyKey(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(t, "routeeCount")
		key := rapid.String().Draw(t, "key")

		routees := make([]*PID, n)
		for i := range routees {
			routees[i] = NewPID("local", rapid.StringMatching(`\$[a-zA-Z0-9]{1,8}`).Draw(t, "id"))
		}
		state := NewRouterState(routees...)

		first := pickByHash(state.Routees(), key)
		for i := 0; i < 5; i++ {
			again := pickByHash(state.Routees(), key)
			if !again.Equal(first) {
				t.Fatalf("same key %q must always resolve to the same routee, got %s then %s", key, first, again)
			}
		}
	})
}

func TestProperty_RoundRobinDistributesEvenlyOverFullCycles(t *testing.T) {
	system := NewActorSystem()
	defer system.Shutdown(time.Second)

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 5).Draw(t, "routeeCount")
		cycles := rapid.IntRange(1, 4).Draw(t, "cycles")

		pids, out, mu := newRecordingRoutees(t, system, n)
		router := system.Spawn(NewProps(NewRouterProducer(&RoundRobinLogic{}, pids...)))

		total := n * cycles
		for i := 0; i < total; i++ {
			system.Send(router, "m")
		}

		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(*out) == total
		}, time.Second, 5*time.Millisecond)

		mu.Lock()
		counts := map[string]int{}
		for _, e := range *out {
			counts[e[:1]]++
		}
		mu.Unlock()

		for tag, count := range counts {
			if count != cycles {
				t.Fatalf("routee %q visited %d times over %d full cycles of %d routees, want %d", tag, count, cycles, n, cycles)
			}
		}
	})
}
