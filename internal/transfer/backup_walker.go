package transfer

import "strings"

// SeedBackupQueue enqueues the starting folder(s) for a Backup run. With no
// category, the whole tree is seeded at "/". With a category, only that
// category's subtree is seeded, and — when includePublic is set and the
// category isn't itself "public" — the corresponding "/public/<category>/"
// subtree is seeded too.
//
// Folder responses expand the queue recursively from here (see
// BackupEngine.handleFolder); the walker's only job is the initial seed.
// Any stale folder-description file from a previous run is irrelevant at
// this point since the prior backup directory has already been renamed
// aside by PrepareBackupDir.
func SeedBackupQueue(queue *Queue, category string, includePublic bool) {
	category = strings.Trim(category, "/")

	if category == "" {
		queue.Enqueue("/", nil)
		return
	}

	queue.Enqueue("/"+category+"/", nil)

	if includePublic && category != "public" {
		queue.Enqueue("/public/"+category+"/", nil)
	}
}
