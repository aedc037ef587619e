package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuffered(level LogLevel, format LogFormat) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: level, Format: format, Output: &buf, Component: "test"}), &buf
}

func lines(buf *bytes.Buffer) []string {
	s := strings.TrimSpace(buf.String())
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  int
	}{
		{DEBUG, 4},
		{INFO, 3},
		{WARN, 2},
		{ERROR, 1},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			l, buf := newBuffered(tt.level, JSONFormat)
			l.Debug("d")
			l.Info("i")
			l.Warn("w")
			l.Error("e", nil)
			assert.Len(t, lines(buf), tt.want)
		})
	}
}

func TestJSONEntry(t *testing.T) {
	l, buf := newBuffered(INFO, JSONFormat)
	l.WithComponent("resolver").Error("unknown range", errors.New("boom"), Fields{"keyword": "Temperature", "n": 2})

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "resolver", entry.Component)
	assert.Equal(t, "unknown range", entry.Message)
	assert.Equal(t, "boom", entry.Error)
	assert.Equal(t, "Temperature", entry.Fields["keyword"])
	assert.Equal(t, float64(2), entry.Fields["n"])
	assert.Equal(t, "logger_test.go", entry.File)
}

func TestTextFieldsAreSorted(t *testing.T) {
	l, buf := newBuffered(INFO, TextFormat)
	l.Info("emitted", Fields{"zeta": 1, "alpha": "x"})

	out := buf.String()
	assert.Contains(t, out, "[test] emitted")
	assert.Contains(t, out, "fields={alpha=x, zeta=1}")
}

func TestChildSharesLevel(t *testing.T) {
	l, buf := newBuffered(INFO, JSONFormat)
	child := l.WithComponent("axis")
	child.Debug("hidden")
	assert.Empty(t, buf.String())
	assert.Equal(t, "axis", child.Component())
	assert.False(t, child.Enabled(DEBUG))
}

func TestFatalExits(t *testing.T) {
	l, buf := newBuffered(INFO, TextFormat)
	code := -1
	l.exit = func(c int) { code = c }
	l.Fatal("stop", nil)
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "FATAL")
}

func TestGlobalHelpers(t *testing.T) {
	orig := Global()
	defer SetGlobal(orig)

	l, buf := newBuffered(INFO, JSONFormat)
	SetGlobal(l)

	Info("one")
	Warn("two")
	Component("history").Info("three")

	got := lines(buf)
	require.Len(t, got, 3)

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(got[2]), &entry))
	assert.Equal(t, "history", entry.Component)
}

func TestParseLevelAndFormat(t *testing.T) {
	lvl, ok := ParseLevel("warning")
	assert.True(t, ok)
	assert.Equal(t, WARN, lvl)

	_, ok = ParseLevel("loud")
	assert.False(t, ok)

	f, ok := ParseFormat("JSON")
	assert.True(t, ok)
	assert.Equal(t, JSONFormat, f)
}
