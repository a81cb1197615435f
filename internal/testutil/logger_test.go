package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTestLogger(t *testing.T) {
	logger := NewTestLogger(t)
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(t.Context(), slog.LevelDebug))
	logger.Debug("visible with -v")
}

func TestRecordingLogger(t *testing.T) {
	logger, rec := NewRecordingLogger()

	logger.Debug("first", slog.Int("n", 1))
	logger.With(slog.String("file", "a.yaml")).WithGroup("stats").Info("second", slog.Int("values", 3))
	logger.Warn("first")

	records := rec.Records()
	require.Len(t, records, 3)

	got, ok := rec.Find("second")
	require.True(t, ok)
	assert.Equal(t, slog.LevelInfo, got.Level)
	assert.Equal(t, map[string]string{"file": "a.yaml", "stats.values": "3"}, got.Attrs)

	assert.Equal(t, 2, rec.Count("first"))
	_, ok = rec.Find("missing")
	assert.False(t, ok)
}
