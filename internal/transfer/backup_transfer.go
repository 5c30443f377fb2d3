package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// BackupEngine ties the shared queue/dispatcher/retry state to the
// Transport and local backup directory needed to execute one GET transfer
// per dispatch, per the Backup status table.
type BackupEngine struct {
	Queue      *Queue
	Dispatcher *Dispatcher
	Barrier    *PauseBarrier
	RetryAfter *RetryAfterPolicy
	Failed     *FailedPaths
	Transport  Transport
	BackupDir  string

	// OnAbandon, if set, is invoked every time an overlong Retry-After
	// triggers graceful abandonment, so lifecycle code can run its signal
	// path without the transfer package knowing about signals.
	OnAbandon func()
}

// Transfer executes one Backup GET for entry and applies the full status
// table, finishing by clearing in-flight and redispatching.
func (e *BackupEngine) Transfer(ctx context.Context, entry *QueueEntry) {
	resp, err := e.Transport.FetchPath(ctx, entry.Path)
	if err != nil {
		slog.Warn("backup transfer failed", "path", entry.Path, "error", err)
		entry.Failures++
		e.Queue.MoveToEnd(entry.Path)
		e.finish(ctx, entry)
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		e.handleSuccess(entry, resp)
		e.Queue.Dequeue(entry.Path)

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		slog.Error("backup: permission denied", "path", entry.Path, "status", resp.StatusCode)
		e.Queue.Dequeue(entry.Path)
		e.Failed.Add(entry.Path)

	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		slog.Warn("backup: deleted since run started", "path", entry.Path, "status", resp.StatusCode)
		e.Queue.Dequeue(entry.Path)
		e.Failed.Add(entry.Path)

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		pause := e.RetryAfter.Resolve(resp.Header["retry-after"], time.Now())
		e.Barrier.Pause(pause)
		if pause > maxPauseDuration && e.OnAbandon != nil {
			e.OnAbandon()
		}
		e.Queue.MoveToEnd(entry.Path)

	case resp.StatusCode == http.StatusGatewayTimeout:
		slog.Warn("backup: gateway timeout, will retry", "path", entry.Path)
		e.Queue.MoveToEnd(entry.Path)

	default:
		slog.Warn("backup: transient server error, will retry", "path", entry.Path, "status", resp.StatusCode)
		entry.Failures++
		e.Queue.MoveToEnd(entry.Path)
	}

	e.finish(ctx, entry)
}

// finish applies the common failure-cap/abandonment rules and triggers the
// next dispatch. It's safe to call after dequeue has already happened.
func (e *BackupEngine) finish(ctx context.Context, entry *QueueEntry) {
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

func (e *BackupEngine) handleSuccess(entry *QueueEntry, resp *TransportResponse) {
	if IsFolder(entry.Path) {
		e.handleFolder(entry, resp)
		return
	}
	e.handleDocument(entry, resp)
}

func (e *BackupEngine) handleFolder(entry *QueueEntry, resp *TransportResponse) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("backup: reading folder body failed", "path", entry.Path, "error", err)
		return
	}

	var desc FolderDescription
	if err := jsonUnmarshal(raw, &desc); err != nil {
		slog.Error("backup: malformed folder description", "path", entry.Path, "error", err)
		return
	}

	dir := LocalFolderDir(e.BackupDir, entry.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Error("backup: mkdir failed", "path", entry.Path, "dir", dir, "error", err)
		return
	}

	descPath := FolderDescriptionPath(e.BackupDir, entry.Path)
	if err := os.WriteFile(descPath, raw, 0o644); err != nil {
		slog.Error("backup: writing folder description failed", "path", descPath, "error", err)
		return
	}

	for childKey, meta := range desc.Items {
		childPath := entry.Path + childKey
		e.Queue.Enqueue(childPath, metadataToMap(meta))
	}
}

func (e *BackupEngine) handleDocument(entry *QueueEntry, resp *TransportResponse) {
	localPath := LocalFilePath(e.BackupDir, entry.Path)
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		slog.Error("backup: mkdir failed", "path", entry.Path, "error", err)
		return
	}

	f, err := os.Create(localPath)
	if err != nil {
		slog.Error("backup: create file failed", "path", localPath, "error", err)
		return
	}
	defer f.Close()

	written, err := io.Copy(f, resp.Body)
	if err != nil {
		slog.Error("backup: streaming document body failed", "path", entry.Path, "error", err)
		return
	}
	slog.Info("backup: document written", "path", entry.Path, "size", humanize.Bytes(uint64(written)))
}

func metadataToMap(m FolderItemMetadata) map[string]string {
	out := make(map[string]string, 4)
	if m.ETag != "" {
		out["ETag"] = m.ETag
	}
	if m.ContentType != "" {
		out["Content-Type"] = m.ContentType
	}
	if m.ContentLength != 0 {
		out["Content-Length"] = strconv.FormatInt(m.ContentLength, 10)
	}
	if m.LastModified != "" {
		out["Last-Modified"] = m.LastModified
	}
	return out
}

// ErrRenameSourceMissing is returned by PrepareBackupDir when there is
// nothing to rename aside; the caller treats this as a no-op, not an error.
var ErrRenameSourceMissing = errors.New("transfer: backup directory does not exist")

// PrepareBackupDir renames any prior backup directory aside to a
// timestamped sibling under the system temp area, per the Backup startup
// prelude. Absence of dir is reported via ErrRenameSourceMissing, which
// callers should treat as harmless; any other error is fatal.
func PrepareBackupDir(dir string, timestampSuffix string) error {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return ErrRenameSourceMissing
		}
		return fmt.Errorf("transfer: stat backup dir: %w", err)
	}

	asideName := filepath.Base(filepath.Clean(dir)) + "-" + timestampSuffix
	asidePath := filepath.Join(os.TempDir(), asideName)

	if err := os.Rename(dir, asidePath); err != nil {
		return fmt.Errorf("transfer: rename backup dir aside: %w", err)
	}
	return nil
}
