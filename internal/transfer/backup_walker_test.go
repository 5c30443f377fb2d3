package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeedBackupQueue_NoCategorySeedsWholeTree(t *testing.T) {
	q := NewQueue(nil)
	SeedBackupQueue(q, "", false)
	assert.Equal(t, []string{"/"}, q.RemainingPaths())
}

func TestSeedBackupQueue_CategoryStripsSlashes(t *testing.T) {
	q := NewQueue(nil)
	SeedBackupQueue(q, "/docs/", false)
	assert.Equal(t, []string{"/docs/"}, q.RemainingPaths())
}

func TestSeedBackupQueue_IncludePublicAddsPublicSubtree(t *testing.T) {
	q := NewQueue(nil)
	SeedBackupQueue(q, "docs", true)
	assert.Equal(t, []string{"/docs/", "/public/docs/"}, q.RemainingPaths())
}

func TestSeedBackupQueue_IncludePublicSkippedWhenCategoryIsPublic(t *testing.T) {
	q := NewQueue(nil)
	SeedBackupQueue(q, "public", true)
	assert.Equal(t, []string{"/public/"}, q.RemainingPaths())
}

func TestSeedBackupQueue_IncludePublicIgnoredWithoutCategory(t *testing.T) {
	q := NewQueue(nil)
	SeedBackupQueue(q, "", true)
	assert.Equal(t, []string{"/"}, q.RemainingPaths())
}
