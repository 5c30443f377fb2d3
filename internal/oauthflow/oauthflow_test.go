package oauthflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendRedirectParam(t *testing.T) {
	full, err := appendRedirectParam("https://host/authorize?client_id=abc", "http://127.0.0.1:9999/callback", "state-123")
	require.NoError(t, err)
	assert.Contains(t, full, "redirect_uri=")
	assert.Contains(t, full, "state=state-123")
	assert.Contains(t, full, "client_id=abc")
}

func TestAcquire_TimesOutWithoutRedirect(t *testing.T) {
	ctx := context.Background()
	_, err := Acquire(ctx, "https://example.invalid/authorize", 50*time.Millisecond)
	assert.Error(t, err)
}

func TestAcquire_ContextCancellationUnblocks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Acquire(ctx, "https://example.invalid/authorize", time.Second)
	assert.Error(t, err)
}
