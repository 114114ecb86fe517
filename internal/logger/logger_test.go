package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bible-chat/backend/internal/logger"
)

func TestSetupWriter(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	t.Run("JSON with level filter", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := logger.SetupWriter(&buf, "WARN", "json")
		require.NoError(t, err)

		l.Info("dropped")
		l.Warn("kept", "chat_id", "c1")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "kept", entry["msg"])
		assert.Equal(t, "c1", entry["chat_id"])
	})

	t.Run("Invalid format", func(t *testing.T) {
		_, err := logger.SetupWriter(&bytes.Buffer{}, "info", "xml")
		assert.Error(t, err)
	})

	t.Run("Invalid level", func(t *testing.T) {
		_, err := logger.SetupWriter(&bytes.Buffer{}, "loud", "text")
		assert.Error(t, err)
	})
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, slog.Default(), logger.FromContext(context.Background()))

	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := logger.WithContext(context.Background(), custom)
	assert.Same(t, custom, logger.FromContext(ctx))
}
