package adaptivebackup

import (
	"context"
	"fmt"
	"time"

	"github.com/openmined/adaptivebackup/internal/discovery"
	"github.com/openmined/adaptivebackup/internal/storageapi"
	"github.com/openmined/adaptivebackup/internal/transfer"
)

const (
	restoreDefaultSimultaneous = 10
	restoreRetryAfterGrowth    = 1.5
)

// Restore drives one upload run: walk the local backup directory and PUT
// every file back to the remote tree, conditionally on an ETag when one is
// known.
type Restore struct {
	opts       Options
	client     *storageapi.Client
	queue      *transfer.Queue
	dispatcher *transfer.Dispatcher
	lifecycle  *transfer.Lifecycle
	engine     *transfer.RestoreEngine
}

// NewRestore resolves endpoint/token (a WebFinger request, plus an
// interactive login when no token is given) and wires the transfer engine,
// but does not walk the local tree or start any transfers yet — call Start
// for that.
func NewRestore(ctx context.Context, opts Options) (*Restore, error) {
	if opts.BackupDir == "" {
		return nil, fmt.Errorf("adaptivebackup: BackupDir is required")
	}
	if opts.UserAddress == "" {
		return nil, fmt.Errorf("adaptivebackup: UserAddress is required to resolve a storage endpoint")
	}
	if opts.Simultaneous <= 0 {
		opts.Simultaneous = restoreDefaultSimultaneous
	}
	if opts.EtagAlgorithm == "" {
		opts.EtagAlgorithm = transfer.DefaultETagAlgorithm
	}
	if !transfer.SupportedETagAlgorithm(opts.EtagAlgorithm) {
		return nil, fmt.Errorf("adaptivebackup: unsupported EtagAlgorithm %q", opts.EtagAlgorithm)
	}

	token, err := resolveToken(ctx, opts)
	if err != nil {
		return nil, err
	}

	endpoint, err := discovery.Resolve(ctx, opts.UserAddress)
	if err != nil {
		return nil, fmt.Errorf("adaptivebackup: discovery: %w", err)
	}

	failed := transfer.NewFailedPaths()
	// No hard-exit timer: an upload run has no startup rename that a stuck
	// transfer could wedge, unlike Backup.
	lifecycle := transfer.NewLifecycle(nil, failed, "total upload time", 0)

	queue := transfer.NewQueue(lifecycle.OnQueueDrained)
	lifecycle.Queue = queue

	barrier := transfer.NewPauseBarrier()
	retryAfter := transfer.NewRetryAfterPolicy(retryAfterInitialMs, restoreRetryAfterGrowth, func(time.Duration) {
		lifecycle.AbandonGracefully(nil)
	})

	client := storageapi.New(endpoint, token, endpoint)

	engine := &transfer.RestoreEngine{
		Queue:         queue,
		Barrier:       barrier,
		RetryAfter:    retryAfter,
		Failed:        failed,
		Transport:     client,
		BackupDir:     opts.BackupDir,
		EtagAlgorithm: opts.EtagAlgorithm,
	}
	engine.OnAbandon = func() { lifecycle.AbandonGracefully(nil) }

	dispatcher := transfer.NewDispatcher(queue, barrier, opts.Simultaneous, engine.Transfer)
	engine.Dispatcher = dispatcher

	return &Restore{
		opts:       opts,
		client:     client,
		queue:      queue,
		dispatcher: dispatcher,
		lifecycle:  lifecycle,
		engine:     engine,
	}, nil
}

// Start walks the local backup directory, seeds the queue, and runs until
// the tree is drained or the run is abandoned, returning the process exit
// code the CLI surface documents.
func (r *Restore) Start(ctx context.Context) (int, error) {
	defer r.client.Close()

	if err := transfer.WalkRestoreTree(r.queue, r.opts.BackupDir, r.opts.Category, r.opts.IncludePublic); err != nil {
		return 0, fmt.Errorf("adaptivebackup: walking backup directory: %w", err)
	}

	go func() {
		<-ctx.Done()
		r.lifecycle.AbandonGracefully(nil)
	}()

	r.lifecycle.Start()
	r.dispatcher.Redispatch(ctx)

	select {
	case <-r.lifecycle.Done():
	case <-r.lifecycle.Abandoned():
		<-r.lifecycle.Done()
	}

	return r.lifecycle.ExitCode(), nil
}
