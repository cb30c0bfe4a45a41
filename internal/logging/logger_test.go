package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/nim-memory/internal/logging"
)

func TestNewLevels(t *testing.T) {
	testCases := []struct {
		level       string
		expectDebug bool
		expectInfo  bool
		expectWarn  bool
	}{
		{"debug", true, true, true},
		{"info", false, true, true},
		{"warn", false, false, true},
		{"warning", false, false, true},
		{"error", false, false, false},
		{"DEBUG", true, true, true},
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := logging.New(tc.level, buf)
			require.NotNil(t, logger)

			logger.Debug("debug message")
			logger.Info("info message")
			logger.Warn("warn message")
			logger.Error("error message")

			output := buf.String()
			assert.Equal(t, tc.expectDebug, strings.Contains(output, "debug message"))
			assert.Equal(t, tc.expectInfo, strings.Contains(output, "info message"))
			assert.Equal(t, tc.expectWarn, strings.Contains(output, "warn message"))
			assert.Contains(t, output, "error message")
		})
	}
}

func TestNewInvalidLevelWarns(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("loud", buf)

	logger.Info("still info")
	assert.Contains(t, buf.String(), "invalid log level")
	assert.Contains(t, buf.String(), "still info")
}

func TestParseLevel(t *testing.T) {
	lvl, ok := logging.ParseLevel(" Warn ")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelWarn, lvl)

	lvl, ok = logging.ParseLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, slog.LevelInfo, lvl)
}

func TestWithAndFrom(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("debug", buf).With("component", "test")

	ctx := logging.With(context.Background(), logger)
	got := logging.From(ctx)
	assert.Equal(t, logger, got)

	got.Info("context message")
	assert.Contains(t, buf.String(), "context message")
	assert.Contains(t, buf.String(), "component")
}

func TestFromUsesDefault(t *testing.T) {
	original := logging.Default()
	t.Cleanup(func() { logging.SetDefault(original) })

	buf := &bytes.Buffer{}
	custom := logging.New("warn", buf)
	logging.SetDefault(custom)

	assert.Equal(t, custom, logging.From(context.Background()))
	logging.From(context.Background()).Warn("warning from default")
	assert.Contains(t, buf.String(), "warning from default")
}
