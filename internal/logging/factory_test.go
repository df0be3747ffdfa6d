package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Slog(t *testing.T) {
	var buf bytes.Buffer
	log, sync, err := New(Options{Level: "warn"}, &buf)
	require.NoError(t, err)
	defer func() { _ = sync() }()

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown", "username", "alice")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "alice", entry["username"])
}

func TestNew_Zap(t *testing.T) {
	var buf bytes.Buffer
	log, sync, err := New(Options{Backend: "zap", Level: "info"}, &buf)
	require.NoError(t, err)

	log.With("module", "httpapi").Info(context.Background(), "request", "status", 200)
	log.Debug(context.Background(), "hidden")
	require.NoError(t, sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "httpapi", entry["module"])
	assert.EqualValues(t, 200, entry["status"])
}

func TestNew_ZapDevWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	log, sync, err := New(Options{Backend: "zap", Level: "debug", Dev: true}, &buf)
	require.NoError(t, err)

	log.Debug(context.Background(), "sweep skipped", "reason", "store unreachable")
	require.NoError(t, sync())

	out := buf.String()
	assert.Contains(t, out, "DEBUG")
	assert.Contains(t, out, "sweep skipped")
	assert.Contains(t, out, "store unreachable")
}

func TestNew_UnknownBackend(t *testing.T) {
	_, _, err := New(Options{Backend: "logrus"}, &bytes.Buffer{})
	assert.Error(t, err)
}
