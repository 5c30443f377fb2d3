package transfer

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// RestoreOutcome is the (status, returnedETag, contentType, contentLength)
// result of one Restore PUT. RestoreEngine.Transfer records it per path
// rather than returning it; read it back with LastOutcome.
type RestoreOutcome struct {
	Status        int
	ReturnedETag  string
	ContentType   string
	ContentLength int64
}

// RestoreEngine ties the shared queue/dispatcher/retry state to the
// Transport, local backup directory, and configured etag algorithm needed
// to execute one PUT transfer per dispatch, per the Restore status table.
type RestoreEngine struct {
	Queue         *Queue
	Dispatcher    *Dispatcher
	Barrier       *PauseBarrier
	RetryAfter    *RetryAfterPolicy
	Failed        *FailedPaths
	Transport     Transport
	BackupDir     string
	EtagAlgorithm string // empty means "use metadata.ETag, don't digest"

	OnAbandon func()

	outcomesMu   sync.Mutex
	lastOutcomes map[string]RestoreOutcome
}

// Transfer executes one Restore PUT for entry and applies the full status
// table, finishing by clearing in-flight and redispatching.
func (e *RestoreEngine) Transfer(ctx context.Context, entry *QueueEntry) {
	outcome, retryAfterHeader, err := e.attempt(ctx, entry)
	if err != nil {
		slog.Warn("restore transfer failed", "path", entry.Path, "error", err)
		entry.Failures++
		e.Queue.MoveToEnd(entry.Path)
		e.recordOutcome(entry.Path, RestoreOutcome{})
		e.finish(ctx, entry)
		return
	}

	e.recordOutcome(entry.Path, outcome)

	switch {
	case outcome.Status == http.StatusOK:
		slog.Info("restore: updated", "path", entry.Path, "etag", outcome.ReturnedETag, "size", humanize.Bytes(uint64(outcome.ContentLength)))
		e.Queue.Dequeue(entry.Path)

	case outcome.Status == http.StatusCreated:
		slog.Info("restore: created", "path", entry.Path, "etag", outcome.ReturnedETag, "size", humanize.Bytes(uint64(outcome.ContentLength)))
		e.Queue.Dequeue(entry.Path)

	case outcome.Status == http.StatusPreconditionFailed:
		slog.Info("restore: already current", "path", entry.Path, "etag", outcome.ReturnedETag)
		e.Queue.Dequeue(entry.Path)

	case outcome.Status == http.StatusUnauthorized || outcome.Status == http.StatusForbidden:
		slog.Error("restore: permission denied", "path", entry.Path, "status", outcome.Status)
		e.Queue.Dequeue(entry.Path)
		e.Failed.Add(entry.Path)

	case outcome.Status == http.StatusTooManyRequests || outcome.Status == http.StatusServiceUnavailable:
		pause := e.RetryAfter.Resolve(retryAfterHeader, time.Now())
		e.Barrier.Pause(pause)
		if pause > maxPauseDuration && e.OnAbandon != nil {
			e.OnAbandon()
		}
		e.Queue.MoveToEnd(entry.Path)

	case outcome.Status == http.StatusGatewayTimeout:
		slog.Warn("restore: gateway timeout, will retry", "path", entry.Path)
		e.Queue.MoveToEnd(entry.Path)

	default:
		slog.Warn("restore: transient server error, will retry", "path", entry.Path, "status", outcome.Status)
		entry.Failures++
		e.Queue.MoveToEnd(entry.Path)
	}

	e.finish(ctx, entry)
}

// attempt computes contentType/contentLength/fileETag for entry, issues the
// PUT, and returns the resulting outcome plus the raw Retry-After header
// value (for 429/503 responses).
func (e *RestoreEngine) attempt(ctx context.Context, entry *QueueEntry) (RestoreOutcome, string, error) {
	localPath := LocalFilePath(e.BackupDir, entry.Path)

	info, err := os.Stat(localPath)
	if err != nil {
		return RestoreOutcome{}, "", err
	}

	contentType := ResolveContentType(localPath, entry.Metadata["Content-Type"])
	contentLength := info.Size()
	fileETag := e.resolveFileETag(entry, localPath)

	headers := map[string]string{
		"Content-Type":   contentType,
		"Content-Length": strconv.FormatInt(contentLength, 10),
	}
	if fileETag != "" {
		headers["If-None-Match"] = fileETag
	}

	f, err := os.Open(localPath)
	if err != nil {
		return RestoreOutcome{}, "", err
	}
	defer f.Close()

	resp, err := e.Transport.PutPath(ctx, entry.Path, f, headers)
	if err != nil {
		return RestoreOutcome{}, "", err
	}
	defer resp.Body.Close()

	returnedETag := resp.ETag
	if returnedETag == "" {
		returnedETag = fileETag
	}

	outcome := RestoreOutcome{
		Status:        resp.StatusCode,
		ReturnedETag:  returnedETag,
		ContentType:   contentType,
		ContentLength: contentLength,
	}
	return outcome, resp.Header["retry-after"], nil
}

// resolveFileETag returns the digester's output when an algorithm is
// configured, else falls back to the saved metadata.ETag if present.
func (e *RestoreEngine) resolveFileETag(entry *QueueEntry, localPath string) string {
	if e.EtagAlgorithm != "" {
		tag, err := ComputeFileETag(localPath, e.EtagAlgorithm)
		if err != nil {
			slog.Warn("restore: computing etag failed, proceeding unconditionally", "path", entry.Path, "error", err)
			return ""
		}
		return tag
	}
	return entry.Metadata["ETag"]
}

func (e *RestoreEngine) finish(ctx context.Context, entry *QueueEntry) {
	if entry.Failures >= maxFailures {
		e.Queue.Dequeue(entry.Path)
		e.Failed.Add(entry.Path)
	}
	if e.Queue.IsAbandoned() {
		e.Queue.Dequeue(entry.Path)
		e.Failed.Add(entry.Path)
	}

	e.Dispatcher.ClearInFlight(entry)
	e.Dispatcher.Redispatch(ctx)
}

func (e *RestoreEngine) recordOutcome(path string, outcome RestoreOutcome) {
	e.outcomesMu.Lock()
	defer e.outcomesMu.Unlock()
	if e.lastOutcomes == nil {
		e.lastOutcomes = make(map[string]RestoreOutcome)
	}
	e.lastOutcomes[path] = outcome
}

// LastOutcome returns the most recently recorded outcome for path, for test
// inspection.
func (e *RestoreEngine) LastOutcome(path string) (RestoreOutcome, bool) {
	e.outcomesMu.Lock()
	defer e.outcomesMu.Unlock()
	o, ok := e.lastOutcomes[path]
	return o, ok
}
