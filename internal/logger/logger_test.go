package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetVerbose(false)
		SetJSON(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	reset(t)

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebug_WhenVerbose(t *testing.T) {
	buf := reset(t)
	SetVerbose(true)

	Debug("test message %s", "arg")

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), `msg="test message arg"`)
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	buf := reset(t)
	SetVerbose(false)

	Debug("test message")
	Info("info message")
	Section("Section")

	assert.Empty(t, buf.String())
}

func TestWarn_AlwaysWritten(t *testing.T) {
	buf := reset(t)
	SetVerbose(false)

	Warn("disk %d%% full", 90)

	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "disk 90% full")
}

func TestSection(t *testing.T) {
	buf := reset(t)
	SetVerbose(true)

	Section("Find")

	assert.Contains(t, buf.String(), "=== Find ===")
}

func TestWith_AddsComponent(t *testing.T) {
	buf := reset(t)
	SetVerbose(true)

	With("couchdb").Info("request", "method", "GET")

	out := buf.String()
	assert.Contains(t, out, "component=couchdb")
	assert.Contains(t, out, "method=GET")
}

func TestWith_FollowsLaterOutputChanges(t *testing.T) {
	log := With("analytics")

	buf := reset(t)
	SetVerbose(true)
	log.Debug("late")

	assert.Contains(t, buf.String(), "component=analytics")
}

func TestSetJSON(t *testing.T) {
	buf := reset(t)
	SetJSON(true)

	Error("boom")

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "boom", entry["msg"])
}
