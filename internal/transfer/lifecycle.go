package transfer

import (
	"log/slog"
	"sync"
	"time"
)

// Process exit codes, per the CLI surface.
const (
	ExitNormal      = 0
	ExitAuthAborted = 1
	ExitAbandoned   = 2
	ExitHardExit    = 3
)

// Lifecycle coordinates startup timing, graceful abandonment, and
// completion reporting shared by Backup and Restore runs. One instance is
// created per run.
type Lifecycle struct {
	Queue      *Queue
	Failed     *FailedPaths
	TimerLabel string        // "total download time" or "total upload time"
	HardExit   time.Duration // 0 disables the hard-exit timer (Restore)

	started time.Time

	mu           sync.Mutex
	done         bool
	doneCh       chan struct{}
	abandonedCh  chan struct{}
	abandonOnce  sync.Once
	hardExitOnce sync.Once
	hardExitFn   func([]string) // invoked with remaining queue keys at hard-exit
}

// NewLifecycle creates a lifecycle bound to queue and the shared failed set.
func NewLifecycle(queue *Queue, failed *FailedPaths, timerLabel string, hardExit time.Duration) *Lifecycle {
	return &Lifecycle{
		Queue:       queue,
		Failed:      failed,
		TimerLabel:  timerLabel,
		HardExit:    hardExit,
		doneCh:      make(chan struct{}),
		abandonedCh: make(chan struct{}),
	}
}

// Start records the run's start time, for the completion timer.
func (l *Lifecycle) Start() {
	l.started = time.Now()
}

// OnQueueDrained is the callback to pass as NewQueue's onDrained argument.
// It's invoked exactly once, when the queue first empties.
func (l *Lifecycle) OnQueueDrained() {
	l.mu.Lock()
	if l.done {
		l.mu.Unlock()
		return
	}
	l.done = true
	l.mu.Unlock()

	l.reportCompletion()
	close(l.doneCh)
}

// reportCompletion emits the elapsed-time log line and summarizes the
// failed-paths set, per the Completion step in the lifecycle design.
func (l *Lifecycle) reportCompletion() {
	if !l.started.IsZero() && l.TimerLabel != "" {
		slog.Info(l.TimerLabel, "elapsed", time.Since(l.started).Round(time.Millisecond).String())
	}
	if n := l.Failed.Len(); n > 0 {
		slog.Warn("completed with failures", "count", n, "paths", l.Failed.Paths())
	}
}

// AbandonGracefully marks the queue abandoned, moves every not-in-flight
// entry to the failed set, and — if a hard-exit duration is configured —
// arms the hard-exit timer. Safe to call more than once; only the first
// call has effect. onHardExit, if non-nil, is invoked with the remaining
// queue keys when the hard-exit timer fires.
func (l *Lifecycle) AbandonGracefully(onHardExit func(remaining []string)) {
	l.abandonOnce.Do(func() {
		removed := l.Queue.MarkAbandoned()
		for _, path := range removed {
			l.Failed.Add(path)
		}
		slog.Warn("graceful abandonment triggered", "removed", len(removed))
		close(l.abandonedCh)

		// MarkAbandoned removes not-in-flight entries directly rather than
		// through Dequeue, so onDrained never fires on its own. If nothing
		// was left in flight, the queue is already empty and completion
		// must be reported here, or Done() would never close.
		if l.Queue.Len() == 0 {
			l.OnQueueDrained()
		}

		if l.HardExit > 0 {
			l.hardExitFn = onHardExit
			time.AfterFunc(l.HardExit, l.fireHardExit)
		}
	})
}

func (l *Lifecycle) fireHardExit() {
	l.hardExitOnce.Do(func() {
		remaining := l.Queue.RemainingPaths()
		slog.Error("hard-exit timer fired, in-flight transfers did not complete", "remaining", remaining)
		if l.hardExitFn != nil {
			l.hardExitFn(remaining)
		}
	})
}

// Done returns a channel closed once the run completes normally (queue
// drained).
func (l *Lifecycle) Done() <-chan struct{} {
	return l.doneCh
}

// Abandoned returns a channel closed once graceful abandonment has been
// triggered.
func (l *Lifecycle) Abandoned() <-chan struct{} {
	return l.abandonedCh
}

// IsAbandoned reports whether abandonment has been triggered.
func (l *Lifecycle) IsAbandoned() bool {
	return l.Queue.IsAbandoned()
}

// ExitCode determines the process exit code once the run has finished
// (either by draining or by abandonment), per the CLI surface's contract:
// 0 on normal completion even with per-path failures, 2 if abandoned before
// completion.
func (l *Lifecycle) ExitCode() int {
	if l.IsAbandoned() {
		return ExitAbandoned
	}
	return ExitNormal
}
