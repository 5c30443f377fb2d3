package transfer

import (
	"crypto/md5"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeFileETag_DefaultsToMD5(t *testing.T) {
	content := []byte("the quick brown fox")
	path := writeTempFile(t, "doc.txt", content)

	got, err := ComputeFileETag(path, "")
	require.NoError(t, err)

	want := fmt.Sprintf("%q", fmt.Sprintf("%x", md5.Sum(content)))
	assert.Equal(t, want, got)
}

func TestComputeFileETag_SelectableAlgorithm(t *testing.T) {
	path := writeTempFile(t, "doc.txt", []byte("payload"))

	md5Tag, err := ComputeFileETag(path, "md5")
	require.NoError(t, err)

	sha256Tag, err := ComputeFileETag(path, "sha256")
	require.NoError(t, err)

	assert.NotEqual(t, md5Tag, sha256Tag)
	assert.Len(t, md5Tag, 34) // 32 hex chars + 2 quotes
	assert.Len(t, sha256Tag, 66)
}

func TestComputeFileETag_UnsupportedAlgorithm(t *testing.T) {
	path := writeTempFile(t, "doc.txt", []byte("payload"))

	_, err := ComputeFileETag(path, "crc32")
	assert.Error(t, err)
}

func TestComputeFileETag_MissingFile(t *testing.T) {
	_, err := ComputeFileETag("/nonexistent/path/does/not/exist", "md5")
	assert.Error(t, err)
}

func TestSupportedETagAlgorithm(t *testing.T) {
	assert.True(t, SupportedETagAlgorithm("md5"))
	assert.True(t, SupportedETagAlgorithm("sha1"))
	assert.True(t, SupportedETagAlgorithm("sha256"))
	assert.False(t, SupportedETagAlgorithm("crc32"))
}
