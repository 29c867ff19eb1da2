package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]LogLevel{"debug": LogLevelDebug, "INFO": LogLevelInfo, "": LogLevelInfo, "warning": LogLevelWarn, "error": LogLevelError} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestRoleMeshLoggerKeyValues(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf}).
		WithComponent("society").
		WithRun("run-1").
		WithContext("task", "find sushi")

	l.Info("society.round.completed", "round", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "society.round.completed", entry["msg"])
	assert.Equal(t, "society", entry["component"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "find sushi", entry["task"])
	assert.EqualValues(t, 2, entry["round"])
}

func TestRoleMeshLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "text", Output: &buf})
	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogRound(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "text", Output: &buf})
	l.LogRound(1, 3, time.Second, false)
	l.LogRound(2, 0, time.Second, true)

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "society.round.completed"))
	assert.Contains(t, out, "tool_calls=3")
	assert.Contains(t, out, "task_done=true")
}

func TestWithContextReplacesKey(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "text", Output: &buf, Component: "runner"}).
		WithComponent("society")
	l.Info("x")
	assert.Equal(t, 1, strings.Count(buf.String(), "component="))
	assert.Contains(t, buf.String(), "component=society")
}

func TestWithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "text", Output: &buf})
	_ = parent.WithContext("k", "v").WithComponent("child")
	parent.Info("parent")
	assert.NotContains(t, buf.String(), "k=v")
	assert.NotContains(t, buf.String(), "component=child")
}

func TestOrNoOp(t *testing.T) {
	assert.IsType(t, NoOpLogger{}, OrNoOp(nil))
	l := FromSlog(nil)
	assert.Same(t, l, OrNoOp(l))
}
