package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiHandler_ForwardsToAllEnabledHandlers(t *testing.T) {
	var bufA, bufB bytes.Buffer
	handlerA := slog.NewTextHandler(&bufA, &slog.HandlerOptions{Level: slog.LevelInfo})
	handlerB := slog.NewTextHandler(&bufB, &slog.HandlerOptions{Level: slog.LevelWarn})

	mh := NewMultiHandler(handlerA, handlerB)
	logger := slog.New(mh)

	logger.Info("info message")
	assert.Contains(t, bufA.String(), "info message")
	assert.NotContains(t, bufB.String(), "info message")

	logger.Warn("warn message")
	assert.Contains(t, bufA.String(), "warn message")
	assert.Contains(t, bufB.String(), "warn message")
}

func TestMultiHandler_EnabledIsTrueIfAnyHandlerEnabled(t *testing.T) {
	var buf bytes.Buffer
	handlerA := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError})
	handlerB := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	mh := NewMultiHandler(handlerA, handlerB)
	assert.True(t, mh.Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, NewMultiHandler(handlerA).Enabled(context.Background(), slog.LevelDebug))
}

func TestMultiHandler_WithAttrsPropagatesToAllHandlers(t *testing.T) {
	var bufA, bufB bytes.Buffer
	handlerA := slog.NewTextHandler(&bufA, nil)
	handlerB := slog.NewTextHandler(&bufB, nil)

	mh := NewMultiHandler(handlerA, handlerB).WithAttrs([]slog.Attr{slog.String("component", "test")})
	logger := slog.New(mh)
	logger.Info("hi")

	require.Contains(t, bufA.String(), "component=test")
	require.Contains(t, bufB.String(), "component=test")
}
