package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodePath_PreservesSeparatorsAndEscapesSegments(t *testing.T) {
	assert.Equal(t, "foo/bar", EncodePath("/foo/bar"))
	assert.Equal(t, "foo%20bar/baz", EncodePath("/foo bar/baz"))
	assert.Equal(t, "caf%C3%A9", EncodePath("/café"))
	assert.Equal(t, "a%2Bb/c", EncodePath("/a+b/c"))
}

func TestEncodePath_Empty(t *testing.T) {
	assert.Equal(t, "", EncodePath("/"))
	assert.Equal(t, "", EncodePath(""))
}

func TestJoinEndpoint(t *testing.T) {
	assert.Equal(t, "https://store.example/api/foo/bar", JoinEndpoint("https://store.example/api/", "/foo/bar"))
	assert.Equal(t, "https://store.example/api/foo/bar", JoinEndpoint("https://store.example/api", "/foo/bar"))
}

func TestIsFolder(t *testing.T) {
	assert.True(t, IsFolder("/a/b/"))
	assert.False(t, IsFolder("/a/b"))
}

func TestParentFolder(t *testing.T) {
	assert.Equal(t, "/a/b/", ParentFolder("/a/b/c"))
	assert.Equal(t, "/a/", ParentFolder("/a/b/"))
	assert.Equal(t, "/", ParentFolder("/c"))
}
