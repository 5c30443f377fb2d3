package transfer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkRestoreTree_EnqueuesFilesWithMetadata(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))
	desc := `{"items":{"a.txt":{"ETag":"\"tag-a\"","Content-Type":"text/plain"}}}`
	require.NoError(t, os.WriteFile(filepath.Join(root, folderDescriptionFileName), []byte(desc), 0o644))

	q := NewQueue(nil)
	require.NoError(t, WalkRestoreTree(q, root, "", false))

	entry, ok := q.Get("/a.txt")
	require.True(t, ok)
	assert.Equal(t, `"tag-a"`, entry.Metadata["ETag"])
	assert.Equal(t, "text/plain", entry.Metadata["Content-Type"])
}

func TestWalkRestoreTree_MissingDescriptionYieldsEmptyMetadata(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))

	q := NewQueue(nil)
	require.NoError(t, WalkRestoreTree(q, root, "", false))

	entry, ok := q.Get("/a.txt")
	require.True(t, ok)
	assert.Nil(t, entry.Metadata)
}

func TestWalkRestoreTree_RecursesSubdirectories(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "docs")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "b.txt"), []byte("y"), 0o644))

	q := NewQueue(nil)
	require.NoError(t, WalkRestoreTree(q, root, "", false))

	_, ok := q.Get("/docs/b.txt")
	assert.True(t, ok)
}

func TestWalkRestoreTree_SkipsDotfilesAndDescriptionFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, folderDescriptionFileName), []byte(`{"items":{}}`), 0o644))

	q := NewQueue(nil)
	require.NoError(t, WalkRestoreTree(q, root, "", false))

	assert.Equal(t, 0, q.Len())
}

func TestWalkRestoreTree_TopLevelOpenFailurePropagates(t *testing.T) {
	q := NewQueue(nil)
	err := WalkRestoreTree(q, filepath.Join(t.TempDir(), "does-not-exist"), "", false)
	assert.Error(t, err)
}

func TestWalkRestoreTree_CategoryScopesToSubtree(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "a.txt"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "other"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "other", "b.txt"), []byte("y"), 0o644))

	q := NewQueue(nil)
	require.NoError(t, WalkRestoreTree(q, root, "docs", false))

	_, ok := q.Get("/docs/a.txt")
	assert.True(t, ok)
	_, ok = q.Get("/other/b.txt")
	assert.False(t, ok)
}

func TestWalkRestoreTree_IncludePublicWalksPublicSubtreeToo(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "a.txt"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "public", "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "public", "docs", "p.txt"), []byte("z"), 0o644))

	q := NewQueue(nil)
	require.NoError(t, WalkRestoreTree(q, root, "docs", true))

	_, ok := q.Get("/docs/a.txt")
	assert.True(t, ok)
	_, ok = q.Get("/public/docs/p.txt")
	assert.True(t, ok)
}

func TestWalkRestoreTree_IncludePublicToleratesMissingPublicSubtree(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "a.txt"), []byte("x"), 0o644))

	q := NewQueue(nil)
	require.NoError(t, WalkRestoreTree(q, root, "docs", true))

	_, ok := q.Get("/docs/a.txt")
	assert.True(t, ok)
}
