package internal

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(orig) })
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"ERROR", LogLevelError},
		{"warn", LogLevelWarn},
		{" debug ", LogLevelDebug},
		{"", LogLevelInfo},
		{"bogus", LogLevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), "parseLevel(%q)", tt.in)
	}
}

func TestLogger_LevelGating(t *testing.T) {
	buf := captureOutput(t)

	l := NewLogger(LogLevelInfo)
	l.Debug("hidden %d", 1)
	assert.NotContains(t, buf.String(), "hidden")

	l.Info("run started")
	l.Warn("re-drew shuffle")
	l.Error("run failed")
	out := buf.String()
	assert.Contains(t, out, "[INFO] run started")
	assert.Contains(t, out, "[WARN] re-drew shuffle")
	assert.Contains(t, out, "[ERROR] run failed")

	buf.Reset()
	NewLogger(LogLevelError).Info("also hidden")
	assert.Empty(t, buf.String())

	buf.Reset()
	NewLogger(LogLevelDebug).Debug("progress 25/100")
	assert.Contains(t, buf.String(), "[DEBUG] progress 25/100")
}
