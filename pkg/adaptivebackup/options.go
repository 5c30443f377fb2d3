// Package adaptivebackup is the library facade over the internal transfer
// engine: cmd/backup and cmd/restore are thin cobra wrappers around
// NewBackup/NewRestore and their Start methods, and any other Go program
// can embed the same two calls directly.
package adaptivebackup

import "time"

// Options is the shared configuration surface for both Backup and Restore
// runs, matching the CLI flag set one-for-one.
type Options struct {
	BackupDir     string
	UserAddress   string
	Token         string
	Category      string
	IncludePublic bool
	Simultaneous  int
	EtagAlgorithm string // Restore only; empty selects md5

	AuthorizationURL string        // interactive login endpoint, used when Token is empty
	LoginTimeout     time.Duration // 0 selects a 2-minute default
}

func (o Options) loginTimeout() time.Duration {
	if o.LoginTimeout > 0 {
		return o.LoginTimeout
	}
	return 2 * time.Minute
}
