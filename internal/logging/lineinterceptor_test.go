package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineInterceptor_PrefixesEachLineWithSequenceAndTime(t *testing.T) {
	var out bytes.Buffer
	li := NewLineInterceptor(&out)

	_, err := li.Write([]byte("first\nsecond\n"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "line=1")
	assert.Contains(t, lines[0], "first")
	assert.Contains(t, lines[1], "line=2")
	assert.Contains(t, lines[1], "second")
}

func TestLineInterceptor_SequenceIncrementsAcrossWrites(t *testing.T) {
	var out bytes.Buffer
	li := NewLineInterceptor(&out)

	_, err := li.Write([]byte("one\n"))
	require.NoError(t, err)
	_, err = li.Write([]byte("two\n"))
	require.NoError(t, err)

	assert.Contains(t, out.String(), "line=1")
	assert.Contains(t, out.String(), "line=2")
}

func TestLineInterceptor_FlushesTrailingLineWithoutNewline(t *testing.T) {
	var out bytes.Buffer
	li := NewLineInterceptor(&out)

	_, err := li.Write([]byte("no newline here"))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "no newline here")

	require.NoError(t, li.Close())
}

func TestLineInterceptor_CloseOnEmptyBufferIsNoop(t *testing.T) {
	var out bytes.Buffer
	li := NewLineInterceptor(&out)
	require.NoError(t, li.Close())
	assert.Empty(t, out.String())
}
