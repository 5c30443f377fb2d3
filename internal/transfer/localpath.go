package transfer

import (
	"path/filepath"
	"strings"
)

// LocalFilePath maps a remote document path to its on-disk location under
// root. "/a/b/c" under root "/backups" becomes "/backups/a/b/c".
func LocalFilePath(root, remotePath string) string {
	trimmed := strings.TrimPrefix(strings.TrimSuffix(remotePath, "/"), "/")
	segments := strings.Split(trimmed, "/")
	return filepath.Join(append([]string{root}, segments...)...)
}

// LocalFolderDir maps a remote folder path to its backing directory under
// root. "/a/b/" under root "/backups" becomes "/backups/a/b".
func LocalFolderDir(root, remotePath string) string {
	return LocalFilePath(root, remotePath)
}

// FolderDescriptionPath returns the path of a folder's persisted
// description file under root.
func FolderDescriptionPath(root, folderPath string) string {
	return filepath.Join(LocalFolderDir(root, folderPath), folderDescriptionFileName)
}
