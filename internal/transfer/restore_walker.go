package transfer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// WalkRestoreTree recurses the local backup directory under root and
// enqueues every regular file found, before any network work happens. For
// each directory it reads that directory's 000_folder-description.json (if
// present) to recover per-file metadata; a missing description file is not
// an error, just an empty metadata map.
//
// With no category, the whole tree under root is walked. With a category,
// only that category's subtree is walked, and — when includePublic is set
// and the category isn't itself "public" — the corresponding
// "/public/<category>/" subtree is walked too; a missing public subtree is
// not an error, since not every category has a public counterpart on disk.
//
// Failure to open the top directory propagates; errors opening a per-entry
// item are logged and skipped.
func WalkRestoreTree(queue *Queue, root, category string, includePublic bool) error {
	category = strings.Trim(category, "/")

	if category == "" {
		return walkRestoreDir(queue, root, "/")
	}

	categoryPath := "/" + category + "/"
	if err := walkRestoreDir(queue, LocalFolderDir(root, categoryPath), categoryPath); err != nil {
		return err
	}

	if includePublic && category != "public" {
		publicPath := "/public/" + category + "/"
		publicDir := LocalFolderDir(root, publicPath)

		if _, err := os.Stat(publicDir); err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("transfer: stat backup directory %s: %w", publicDir, err)
		}

		if err := walkRestoreDir(queue, publicDir, publicPath); err != nil {
			return err
		}
	}

	return nil
}

// walkRestoreDir processes localDir, which backs the remote folder path
// folderPath (always ending in "/").
func walkRestoreDir(queue *Queue, localDir, folderPath string) error {
	desc := readFolderDescription(localDir)

	entries, err := os.ReadDir(localDir)
	if err != nil {
		return fmt.Errorf("transfer: read backup directory %s: %w", localDir, err)
	}

	for _, dirEntry := range entries {
		name := dirEntry.Name()

		if name == folderDescriptionFileName || strings.HasPrefix(name, ".") {
			continue
		}

		childLocal := filepath.Join(localDir, name)

		info, err := dirEntry.Info()
		if err != nil {
			slog.Warn("restore walker: stat failed, skipping", "path", childLocal, "error", err)
			continue
		}

		switch {
		case info.Mode().IsRegular():
			remotePath := folderPath + name
			metadata := metadataForChild(desc, name)
			queue.Enqueue(remotePath, metadata)

		case info.IsDir():
			childFolderPath := folderPath + name + "/"
			if err := walkRestoreDir(queue, childLocal, childFolderPath); err != nil {
				slog.Warn("restore walker: recursing into subdirectory failed, skipping", "path", childLocal, "error", err)
			}

		default:
			// links, sockets, pipes: ignored.
		}
	}

	return nil
}

// readFolderDescription reads dir's 000_folder-description.json, returning
// an empty description if it's missing or unreadable (logged as a warning).
func readFolderDescription(dir string) FolderDescription {
	path := filepath.Join(dir, folderDescriptionFileName)

	raw, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("restore walker: reading folder description failed, using empty metadata", "path", path, "error", err)
		return FolderDescription{}
	}

	var desc FolderDescription
	if err := jsonUnmarshal(raw, &desc); err != nil {
		slog.Warn("restore walker: malformed folder description, using empty metadata", "path", path, "error", err)
		return FolderDescription{}
	}
	return desc
}

func metadataForChild(desc FolderDescription, name string) map[string]string {
	if desc.Items == nil {
		return nil
	}
	meta, ok := desc.Items[name]
	if !ok {
		return nil
	}
	return metadataToMap(meta)
}
