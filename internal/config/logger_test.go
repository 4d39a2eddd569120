package config

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerConfig_NewLogger(t *testing.T) {
	ctx := context.Background()

	t.Run("level gates records", func(t *testing.T) {
		logger := (&LoggerConfig{Level: "warn"}).NewLogger()
		assert.False(t, logger.Enabled(ctx, slog.LevelInfo))
		assert.True(t, logger.Enabled(ctx, slog.LevelWarn))
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		logger := (&LoggerConfig{Level: "verbose"}).NewLogger()
		assert.True(t, logger.Enabled(ctx, slog.LevelInfo))
		assert.False(t, logger.Enabled(ctx, slog.LevelDebug))
	})

	t.Run("text format is accepted", func(t *testing.T) {
		logger := (&LoggerConfig{Level: "info", Format: "text"}).NewLogger()
		assert.True(t, logger.Enabled(ctx, slog.LevelInfo))
	})
}
