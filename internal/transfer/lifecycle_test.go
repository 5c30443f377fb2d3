package transfer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLifecycle_OnQueueDrainedClosesDoneOnce(t *testing.T) {
	failed := NewFailedPaths()
	queue := NewQueue(nil)
	lc := NewLifecycle(queue, failed, "total download time", 0)
	lc.Start()

	lc.OnQueueDrained()
	select {
	case <-lc.Done():
	default:
		t.Fatal("expected Done() to be closed")
	}

	// second call is a no-op, must not panic on double-close
	lc.OnQueueDrained()
}

func TestLifecycle_ExitCodeNormalWhenNotAbandoned(t *testing.T) {
	queue := NewQueue(nil)
	lc := NewLifecycle(queue, NewFailedPaths(), "", 0)
	assert.Equal(t, ExitNormal, lc.ExitCode())
}

func TestLifecycle_ExitCodeAbandonedAfterAbandonGracefully(t *testing.T) {
	queue := NewQueue(nil)
	queue.Enqueue("/a", nil)
	lc := NewLifecycle(queue, NewFailedPaths(), "", 0)

	lc.AbandonGracefully(nil)
	assert.Equal(t, ExitAbandoned, lc.ExitCode())

	select {
	case <-lc.Abandoned():
	default:
		t.Fatal("expected Abandoned() to be closed")
	}
}

func TestLifecycle_AbandonGracefullyMovesQueuedPathsToFailedSet(t *testing.T) {
	queue := NewQueue(nil)
	queue.Enqueue("/a", nil)
	queue.Enqueue("/b", nil)
	failed := NewFailedPaths()
	lc := NewLifecycle(queue, failed, "", 0)

	lc.AbandonGracefully(nil)

	assert.Equal(t, 2, failed.Len())
	assert.Equal(t, 0, queue.Len())

	// No transfers were ever in flight, so MarkAbandoned empties the queue
	// directly (bypassing Dequeue). Done() must still close, or a caller
	// blocked on it would hang forever.
	select {
	case <-lc.Done():
	default:
		t.Fatal("expected Done() to be closed when abandonment drains the queue to empty")
	}
}

func TestLifecycle_HardExitFiresAfterAbandonment(t *testing.T) {
	queue := NewQueue(nil)
	lc := NewLifecycle(queue, NewFailedPaths(), "", 20*time.Millisecond)

	fired := make(chan []string, 1)
	lc.AbandonGracefully(func(remaining []string) {
		fired <- remaining
	})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("hard-exit callback did not fire")
	}
}

func TestLifecycle_AbandonGracefullyIsIdempotent(t *testing.T) {
	queue := NewQueue(nil)
	queue.Enqueue("/a", nil)
	failed := NewFailedPaths()
	lc := NewLifecycle(queue, failed, "", 0)

	lc.AbandonGracefully(nil)
	lc.AbandonGracefully(nil)

	assert.Equal(t, 1, failed.Len())
}
