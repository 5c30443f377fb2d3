package transfer

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitForCondition polls until cond returns true or the timeout elapses.
func waitForCondition(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	require.True(t, cond(), "condition not met within %s", timeout)
}

func TestDispatcher_NeverExceedsSimultaneousLimit(t *testing.T) {
	queue := NewQueue(nil)
	for i := 0; i < 20; i++ {
		queue.Enqueue(string(rune('a'+i)), nil)
	}

	var mu sync.Mutex
	var maxObserved, current int32

	var dispatcher *Dispatcher
	dispatcher = NewDispatcher(queue, NewPauseBarrier(), 4, func(ctx context.Context, entry *QueueEntry) {
		n := atomic.AddInt32(&current, 1)
		mu.Lock()
		if n > int32(maxObserved) {
			maxObserved = n
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		atomic.AddInt32(&current, -1)
		queue.Dequeue(entry.Path)
		dispatcher.ClearInFlight(entry)
		dispatcher.Redispatch(context.Background())
	})

	dispatcher.Dispatch(context.Background())

	waitForCondition(t, time.Second, func() bool { return queue.Len() == 0 })

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, int(maxObserved), 4)
}

func TestDispatcher_DrainsEntireQueue(t *testing.T) {
	queue := NewQueue(nil)
	paths := []string{"/a", "/b", "/c", "/d", "/e"}
	for _, p := range paths {
		queue.Enqueue(p, nil)
	}

	var processed sync.Map
	var dispatcher *Dispatcher
	dispatcher = NewDispatcher(queue, NewPauseBarrier(), 2, func(ctx context.Context, entry *QueueEntry) {
		processed.Store(entry.Path, true)
		queue.Dequeue(entry.Path)
		dispatcher.ClearInFlight(entry)
		dispatcher.Redispatch(context.Background())
	})

	dispatcher.Dispatch(context.Background())

	waitForCondition(t, time.Second, func() bool { return queue.Len() == 0 })

	for _, p := range paths {
		_, ok := processed.Load(p)
		assert.True(t, ok, "expected %s to have been processed", p)
	}
}

func TestDispatcher_PauseBarrierDelaysLaunch(t *testing.T) {
	queue := NewQueue(nil)
	queue.Enqueue("/a", nil)

	barrier := NewPauseBarrier()
	barrier.Pause(40 * time.Millisecond)

	var launched int32
	var dispatcher *Dispatcher
	dispatcher = NewDispatcher(queue, barrier, 1, func(ctx context.Context, entry *QueueEntry) {
		atomic.StoreInt32(&launched, 1)
		queue.Dequeue(entry.Path)
		dispatcher.ClearInFlight(entry)
	})

	start := time.Now()
	dispatcher.Dispatch(context.Background())

	waitForCondition(t, time.Second, func() bool { return atomic.LoadInt32(&launched) == 1 })
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestDispatcher_NoCandidateReturnsImmediately(t *testing.T) {
	queue := NewQueue(nil)
	dispatcher := NewDispatcher(queue, NewPauseBarrier(), 4, func(ctx context.Context, entry *QueueEntry) {
		t.Fatal("transfer should not be invoked on an empty queue")
	})

	dispatcher.Dispatch(context.Background())
}
