package adaptivebackup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/openmined/adaptivebackup/internal/discovery"
	"github.com/openmined/adaptivebackup/internal/oauthflow"
	"github.com/openmined/adaptivebackup/internal/storageapi"
	"github.com/openmined/adaptivebackup/internal/transfer"
)

const (
	backupDefaultSimultaneous = 9
	backupHardExitTimeout     = 10 * time.Second
	backupRetryAfterGrowth    = 2.0
	retryAfterInitialMs       = 1500
)

// Backup drives one download run: resolve endpoint and token, rename any
// prior backup directory aside, and stream the remote tree to disk.
type Backup struct {
	opts       Options
	client     *storageapi.Client
	queue      *transfer.Queue
	dispatcher *transfer.Dispatcher
	lifecycle  *transfer.Lifecycle
	engine     *transfer.BackupEngine
}

// NewBackup resolves endpoint/token (a WebFinger request, plus an
// interactive login when no token is given), prepares the backup directory,
// and wires the transfer engine, but does not start any transfers yet —
// call Start for that.
func NewBackup(ctx context.Context, opts Options) (*Backup, error) {
	if opts.BackupDir == "" {
		return nil, fmt.Errorf("adaptivebackup: BackupDir is required")
	}
	if opts.UserAddress == "" {
		return nil, fmt.Errorf("adaptivebackup: UserAddress is required to resolve a storage endpoint")
	}
	if opts.Simultaneous <= 0 {
		opts.Simultaneous = backupDefaultSimultaneous
	}

	token, err := resolveToken(ctx, opts)
	if err != nil {
		return nil, err
	}

	endpoint, err := discovery.Resolve(ctx, opts.UserAddress)
	if err != nil {
		return nil, fmt.Errorf("adaptivebackup: discovery: %w", err)
	}

	if err := prepareBackupDir(opts.BackupDir); err != nil {
		return nil, err
	}

	failed := transfer.NewFailedPaths()
	lifecycle := transfer.NewLifecycle(nil, failed, "total download time", backupHardExitTimeout)

	queue := transfer.NewQueue(lifecycle.OnQueueDrained)
	lifecycle.Queue = queue

	barrier := transfer.NewPauseBarrier()
	retryAfter := transfer.NewRetryAfterPolicy(retryAfterInitialMs, backupRetryAfterGrowth, func(time.Duration) {
		lifecycle.AbandonGracefully(logHardExit)
	})

	client := storageapi.New(endpoint, token, endpoint)

	engine := &transfer.BackupEngine{
		Queue:      queue,
		Barrier:    barrier,
		RetryAfter: retryAfter,
		Failed:     failed,
		Transport:  client,
		BackupDir:  opts.BackupDir,
	}
	engine.OnAbandon = func() { lifecycle.AbandonGracefully(logHardExit) }

	dispatcher := transfer.NewDispatcher(queue, barrier, opts.Simultaneous, engine.Transfer)
	engine.Dispatcher = dispatcher

	return &Backup{
		opts:       opts,
		client:     client,
		queue:      queue,
		dispatcher: dispatcher,
		lifecycle:  lifecycle,
		engine:     engine,
	}, nil
}

// Start seeds the queue and runs until the tree is drained or the run is
// abandoned (via ctx cancellation or an overlong Retry-After), returning
// the process exit code the CLI surface documents.
func (b *Backup) Start(ctx context.Context) int {
	defer b.client.Close()

	go func() {
		<-ctx.Done()
		b.lifecycle.AbandonGracefully(logHardExit)
	}()

	b.lifecycle.Start()
	transfer.SeedBackupQueue(b.queue, b.opts.Category, b.opts.IncludePublic)
	b.dispatcher.Redispatch(ctx)

	select {
	case <-b.lifecycle.Done():
	case <-b.lifecycle.Abandoned():
		<-b.lifecycle.Done()
	}

	return b.lifecycle.ExitCode()
}

func resolveToken(ctx context.Context, opts Options) (string, error) {
	if opts.Token != "" {
		return opts.Token, nil
	}
	if opts.AuthorizationURL == "" {
		return "", fmt.Errorf("adaptivebackup: Token is empty and AuthorizationURL is not set")
	}
	token, err := oauthflow.Acquire(ctx, opts.AuthorizationURL, opts.loginTimeout())
	if err != nil {
		return "", fmt.Errorf("adaptivebackup: interactive login: %w", err)
	}
	return token, nil
}

func prepareBackupDir(dir string) error {
	suffix := time.Now().UTC().Format("20060102T150405Z")
	if err := transfer.PrepareBackupDir(dir, suffix); err != nil && err != transfer.ErrRenameSourceMissing {
		return fmt.Errorf("adaptivebackup: preparing backup directory: %w", err)
	}
	return os.MkdirAll(dir, 0o755)
}

func logHardExit(remaining []string) {
	slog.Error("hard exit", "remaining_count", len(remaining))
	os.Exit(transfer.ExitHardExit)
}
