package plog

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlogLevels(t *testing.T) {
	// --- Setup: Redirect plog output to capture log output ---
	var logBuf bytes.Buffer
	SetOutput(&logBuf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
		SetQuiet(false)
	})

	t.Run("Logs all levels when level is Debug", func(t *testing.T) {
		logBuf.Reset()
		SetLevel(LevelDebug)

		Debug("debug message", "key", "val1")
		Info("info message", "key", "val2")
		Warn("warn message")

		output := logBuf.String()
		assert.Contains(t, output, `level=DEBUG msg="debug message" key=val1`)
		assert.Contains(t, output, `level=INFO msg="info message" key=val2`)
		assert.Contains(t, output, `level=WARN msg="warn message"`)
	})

	t.Run("Suppresses lower levels when level is Warn", func(t *testing.T) {
		logBuf.Reset()
		SetLevel(LevelWarn)

		Debug("debug message")
		Notice("notice message")
		Info("info message")

		assert.Empty(t, logBuf.String(), "expected no output below warn level")
	})

	t.Run("Notice is rendered by name", func(t *testing.T) {
		logBuf.Reset()
		SetLevel(LevelNotice)

		Debug("debug message")
		Notice("MINIFY", "file", "data/items.json")

		output := logBuf.String()
		assert.NotContains(t, output, "debug message")
		assert.Contains(t, output, `level=NOTICE msg=MINIFY file=data/items.json`)
	})

	t.Run("Quiet mode hides info but keeps errors", func(t *testing.T) {
		logBuf.Reset()
		SetLevel(LevelInfo)
		SetQuiet(true)
		defer SetQuiet(false)

		Info("info message")
		Error("error message")

		output := logBuf.String()
		assert.NotContains(t, output, "info message")
		assert.Contains(t, output, `level=ERROR msg="error message"`)
	})
}

func TestLevelFromString(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"debug", "DEBUG"},
		{"NOTICE", "DEBUG+2"},
		{"info", "INFO"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"bogus", "INFO"},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, LevelFromString(tc.input).String())
		})
	}

	assert.False(t, IsValidLevel("bogus"))
	assert.True(t, IsValidLevel("Notice"))
}
