package transfer

import "sync"

// FailedPaths is the shared set of remote paths the engine has given up on.
// Disjoint from the queue at every stable point; grows monotonically during
// a run.
type FailedPaths struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewFailedPaths returns an empty set.
func NewFailedPaths() *FailedPaths {
	return &FailedPaths{seen: make(map[string]struct{})}
}

// Add records path as failed.
func (f *FailedPaths) Add(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen[path] = struct{}{}
}

// Len reports how many paths have failed so far.
func (f *FailedPaths) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

// Paths returns a snapshot of the failed paths. Order is unspecified.
func (f *FailedPaths) Paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.seen))
	for p := range f.seen {
		out = append(out, p)
	}
	return out
}
