package logger

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvLogger_Debug(t *testing.T) {
	tests := []struct {
		name      string
		envValue  string
		expectLog bool
	}{
		{
			name:      "logs when SHELLD_DEBUG is set",
			envValue:  "1",
			expectLog: true,
		},
		{
			name:      "logs when SHELLD_DEBUG is any value",
			envValue:  "true",
			expectLog: true,
		},
		{
			name:      "does not log when SHELLD_DEBUG is empty",
			envValue:  "",
			expectLog: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Capture log output
			var buf bytes.Buffer
			log.SetOutput(&buf)
			defer log.SetOutput(os.Stderr)

			if tt.envValue != "" {
				t.Setenv("SHELLD_DEBUG", tt.envValue)
			} else {
				os.Unsetenv("SHELLD_DEBUG")
			}

			l := NewEnvLogger("[test]")
			l.Debug("test message %s", "arg")

			if tt.expectLog {
				assert.Contains(t, buf.String(), "[test] test message arg")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestEnvLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := NewEnvLogger("[term]")
	l.Info("connected %s", "user")
	l.Warn("fallback to %s", "dumb")
	l.Error("close failed: %v", os.ErrClosed)

	out := buf.String()
	assert.Contains(t, out, "[term] connected user")
	assert.Contains(t, out, "[term] WARN: fallback to dumb")
	assert.Contains(t, out, "[term] ERROR: close failed")
}

func TestNoopLogger(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := Noop()
	l.Debug("a")
	l.Info("b")
	l.Warn("c")
	l.Error("d")

	assert.Empty(t, buf.String())
}

func TestBufferLogger(t *testing.T) {
	l := NewBufferLogger()
	l.Debug("tier %d failed", 1)
	l.Info("session %s started", "abc")
	l.Warn("degraded")
	l.Error("boom")

	assert.Len(t, l.Messages, 4)
	assert.Equal(t, "debug", l.Messages[0].Level)
	assert.Equal(t, "tier 1 failed", l.Messages[0].Message)
	assert.True(t, l.HasLevel("warn"))
	assert.False(t, NewBufferLogger().HasLevel("error"))

	l.Clear()
	assert.Empty(t, l.Messages)
	assert.False(t, l.HasLevel("debug"))
}
