package transfer

import (
	"container/list"
	"log/slog"
	"sync"
)

// QueueEntry is the mutable state record for one path in flight through a
// transfer run. Its identity (pointer) survives moveToEnd, so callers that
// hold a reference keep observing the same object across reordering.
type QueueEntry struct {
	Path     string
	Metadata map[string]string
	InFlight bool
	Failures int
}

// Queue is the insertion-ordered path -> *QueueEntry map backing the
// dispatcher. Selection order and moveToEnd semantics follow enqueue order;
// entry identity is preserved across reinsertion.
type Queue struct {
	mu         sync.Mutex
	order      *list.List
	index      map[string]*list.Element
	abandoned  bool
	onDrained  func()
	onDrainedO sync.Once
}

// NewQueue creates an empty queue. onDrained, if non-nil, is invoked exactly
// once, the first time a Dequeue leaves the queue empty. MarkAbandoned can
// also empty the queue, but does not invoke it.
func NewQueue(onDrained func()) *Queue {
	return &Queue{
		order:     list.New(),
		index:     make(map[string]*list.Element),
		onDrained: onDrained,
	}
}

// Enqueue adds path with the given metadata if not already present. If path
// is already queued, the existing entry is left unchanged and a warning is
// logged. If the queue has been marked abandoned, the call is a no-op and an
// error is logged.
func (q *Queue) Enqueue(path string, metadata map[string]string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.abandoned {
		slog.Error("enqueue attempted after abandonment, ignoring", "path", path)
		return
	}

	if _, exists := q.index[path]; exists {
		slog.Warn("path already queued, leaving existing entry unchanged", "path", path)
		return
	}

	entry := &QueueEntry{Path: path, Metadata: metadata}
	elem := q.order.PushBack(entry)
	q.index[path] = elem
}

// Dequeue removes path from the queue. If the queue becomes empty as a
// result, the drained callback fires (once).
func (q *Queue) Dequeue(path string) {
	q.mu.Lock()
	elem, exists := q.index[path]
	if !exists {
		q.mu.Unlock()
		return
	}
	q.order.Remove(elem)
	delete(q.index, path)
	drained := q.order.Len() == 0
	q.mu.Unlock()

	if drained && q.onDrained != nil {
		q.onDrainedO.Do(q.onDrained)
	}
}

// MoveToEnd removes and reinserts path's entry, preserving its pointer
// identity. Idempotent when the entry is already last.
func (q *Queue) MoveToEnd(path string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	elem, exists := q.index[path]
	if !exists {
		return
	}
	q.order.MoveToBack(elem)
}

// Get returns the entry for path, if present.
func (q *Queue) Get(path string) (*QueueEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	elem, exists := q.index[path]
	if !exists {
		return nil, false
	}
	return elem.Value.(*QueueEntry), true
}

// Len returns the current queue length.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.order.Len()
}

// Snapshot returns the entries in insertion order, for tests and
// diagnostics (the dispatcher's scan step is ClaimNext); callers must not
// mutate the slice contents concurrently with other queue operations beyond
// what the dispatcher's own single-flight contract already allows.
func (q *Queue) Snapshot() []*QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*QueueEntry, 0, q.order.Len())
	for e := q.order.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*QueueEntry))
	}
	return out
}

// RemainingPaths returns the paths still queued, in insertion order. Used
// when logging what's left at a hard-exit.
func (q *Queue) RemainingPaths() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]string, 0, q.order.Len())
	for e := q.order.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*QueueEntry).Path)
	}
	return out
}

// ClaimNext scans entries in insertion order and marks at most one
// not-in-flight entry in-flight, returning it along with whether another
// slot remains open under simultaneous after the claim. The scan and the
// mark happen under the same lock that guards every other queue mutation
// (including MarkAbandoned and ClearInFlight), so InFlight never has two
// different mutexes protecting it.
func (q *Queue) ClaimNext(simultaneous int) (entry *QueueEntry, rampAgain bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	inFlightCount := 0
	var next *QueueEntry
	for e := q.order.Front(); e != nil; e = e.Next() {
		candidate := e.Value.(*QueueEntry)
		if candidate.InFlight {
			inFlightCount++
		} else if next == nil {
			next = candidate
		}
		if next != nil && inFlightCount >= simultaneous {
			break
		}
	}

	if next == nil || inFlightCount >= simultaneous {
		return nil, false
	}

	next.InFlight = true
	inFlightCount++
	return next, inFlightCount < simultaneous
}

// ClearInFlight clears entry's in-flight flag under the queue's own mutex.
func (q *Queue) ClearInFlight(entry *QueueEntry) {
	q.mu.Lock()
	entry.InFlight = false
	q.mu.Unlock()
}

// MarkAbandoned sets the abandoned flag and removes every not-in-flight
// entry, returning their paths so the caller can add them to the failed set.
// In-flight entries are left to complete naturally.
func (q *Queue) MarkAbandoned() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.abandoned = true

	var removed []string
	next := q.order.Front()
	for next != nil {
		e := next
		next = next.Next()

		entry := e.Value.(*QueueEntry)
		if entry.InFlight {
			continue
		}
		q.order.Remove(e)
		delete(q.index, entry.Path)
		removed = append(removed, entry.Path)
	}
	return removed
}

// IsAbandoned reports whether the queue has been marked abandoned.
func (q *Queue) IsAbandoned() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.abandoned
}
