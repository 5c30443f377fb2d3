package transfer

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// maxPauseDuration is the overlong-Retry-After threshold from the spec: a
// pause longer than this triggers graceful abandonment.
const maxPauseDuration = time.Hour

// RetryAfterPolicy converts a server-supplied Retry-After header value into
// a pause duration, tracking a per-process default that grows every time the
// header is missing or unusable. One policy instance is shared by all
// transfers of a single mode (Backup or Restore), since the growth factor
// and default value are per-mode state.
type RetryAfterPolicy struct {
	mu           sync.Mutex
	defaultMs    int64
	growthFactor float64
	onOverlong   func(d time.Duration)
}

// NewRetryAfterPolicy creates a policy with the given starting default (ms)
// and growth factor applied every time the header can't be parsed.
// onOverlong, if non-nil, is invoked when a resolved pause exceeds one hour.
func NewRetryAfterPolicy(initialDefaultMs int64, growthFactor float64, onOverlong func(time.Duration)) *RetryAfterPolicy {
	return &RetryAfterPolicy{
		defaultMs:    initialDefaultMs,
		growthFactor: growthFactor,
		onOverlong:   onOverlong,
	}
}

// Resolve parses a Retry-After header value and returns the pause duration
// to apply. now is injectable for tests.
func (p *RetryAfterPolicy) Resolve(headerValue string, now time.Time) time.Duration {
	if d, ok := parseRetryAfterSeconds(headerValue); ok {
		return p.finish(d)
	}
	if d, ok := parseRetryAfterDate(headerValue, now); ok {
		return p.finish(d)
	}
	return p.finish(p.useDefaultAndGrow())
}

func (p *RetryAfterPolicy) finish(d time.Duration) time.Duration {
	if d > maxPauseDuration {
		slog.Warn("retry-after pause exceeds one hour, abandoning run", "pause", d)
		if p.onOverlong != nil {
			p.onOverlong(d)
		}
	}
	return d
}

func (p *RetryAfterPolicy) useDefaultAndGrow() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	ms := p.defaultMs
	p.defaultMs = int64(float64(p.defaultMs) * p.growthFactor)
	return time.Duration(ms) * time.Millisecond
}

// DefaultMs returns the current default pause, for tests and diagnostics.
func (p *RetryAfterPolicy) DefaultMs() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.defaultMs
}

func parseRetryAfterSeconds(headerValue string) (time.Duration, bool) {
	secs, err := strconv.Atoi(headerValue)
	if err != nil || secs <= 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

func parseRetryAfterDate(headerValue string, now time.Time) (time.Duration, bool) {
	t, err := http.ParseTime(headerValue)
	if err != nil {
		return 0, false
	}
	if !t.After(now) {
		return 0, false
	}
	return t.Sub(now), true
}
