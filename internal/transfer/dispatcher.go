package transfer

import (
	"context"
	"time"
)

// rampInterval is the fixed 1ms timer the dispatcher uses to keep filling
// available concurrency slots without bursting; it doubles as a rate cap of
// at most 1000 new launches per second.
const rampInterval = time.Millisecond

// TransferFunc executes one transfer attempt for entry and performs all of
// its own post-handling per the mode's status table (dequeue or moveToEnd,
// failure accounting), then clears entry's in-flight flag via
// Dispatcher.ClearInFlight and triggers the next dispatch via
// Dispatcher.Redispatch.
type TransferFunc func(ctx context.Context, entry *QueueEntry)

// Dispatcher implements the checkFetch/checkPut cooperative contract: each
// call to Dispatch scans the queue once, in insertion order, and starts at
// most one new transfer. Concurrency comes from overlapping transfers, not
// from parallel dispatch; the scan-and-claim step is serialized by the
// queue's own mutex (Queue.ClaimNext), the same lock that guards every other
// queue mutation, so no two calls can select the same entry and InFlight is
// never read or written outside of it.
type Dispatcher struct {
	queue        *Queue
	barrier      *PauseBarrier
	simultaneous int
	transfer     TransferFunc
}

// NewDispatcher builds a dispatcher bound to queue and barrier, launching at
// most simultaneous transfers concurrently via transfer.
func NewDispatcher(queue *Queue, barrier *PauseBarrier, simultaneous int, transfer TransferFunc) *Dispatcher {
	return &Dispatcher{
		queue:        queue,
		barrier:      barrier,
		simultaneous: simultaneous,
		transfer:     transfer,
	}
}

// Dispatch awaits the pause barrier, then scans the queue once and starts at
// most one new transfer. It schedules a follow-up dispatch via the 1ms ramp
// timer whenever launching this one still leaves room under the
// simultaneous limit.
func (d *Dispatcher) Dispatch(ctx context.Context) {
	if err := d.barrier.Await(ctx); err != nil {
		return
	}

	entry, rampAgain := d.claimNext()
	if entry == nil {
		return
	}

	if rampAgain {
		time.AfterFunc(rampInterval, func() {
			d.Dispatch(ctx)
		})
	}

	go d.transfer(ctx, entry)
}

// claimNext delegates to the queue's own ClaimNext, which scans in
// insertion order and marks the chosen entry in-flight atomically under the
// queue's mutex.
func (d *Dispatcher) claimNext() (entry *QueueEntry, rampAgain bool) {
	return d.queue.ClaimNext(d.simultaneous)
}

// ClearInFlight clears entry's in-flight flag. Transfer implementations
// call this during post-handling, before Redispatch, per the mode's status
// table ("In all paths, clear inFlight, then schedule another dispatcher
// invocation").
func (d *Dispatcher) ClearInFlight(entry *QueueEntry) {
	d.queue.ClearInFlight(entry)
}

// Redispatch schedules a zero-delay dispatcher invocation, the
// post-completion re-dispatch that fires after every transfer finishes.
func (d *Dispatcher) Redispatch(ctx context.Context) {
	go d.Dispatch(ctx)
}
