package transfer

import (
	"context"
	"sync"
	"time"
)

// PauseBarrier is the shared gate that every transfer launch awaits before
// issuing its network request. It starts open; a 429/503 response installs
// a timed pause that blocks new launches until it elapses.
type PauseBarrier struct {
	mu    sync.Mutex
	gate  chan struct{}
	timer *time.Timer
}

// NewPauseBarrier returns an open barrier.
func NewPauseBarrier() *PauseBarrier {
	gate := make(chan struct{})
	close(gate)
	return &PauseBarrier{gate: gate}
}

// Pause installs (or extends) a pause of duration d. If the barrier is
// already paused, the pending timer is reset to d rather than stacking a
// second gate, so existing waiters unblock exactly once the new duration
// elapses.
func (b *PauseBarrier) Pause(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.gate:
		// currently open; install a new closed gate for this pause.
		b.gate = make(chan struct{})
	default:
		// already paused; reuse the existing gate, just reset the timer.
	}

	gate := b.gate
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(d, func() {
		close(gate)
	})
}

// Await blocks until the barrier is open or ctx is done.
func (b *PauseBarrier) Await(ctx context.Context) error {
	b.mu.Lock()
	gate := b.gate
	b.mu.Unlock()

	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Paused reports whether the barrier currently blocks new launches.
func (b *PauseBarrier) Paused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.gate:
		return false
	default:
		return true
	}
}
