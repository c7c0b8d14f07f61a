package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)

	l, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestFanout(t *testing.T) {
	var term bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "checkboard.log")

	log, closeFn, err := New(Options{Level: "warn", File: file, Writer: &term})
	require.NoError(t, err)

	log.Debug("rescanned", "path", "a.md")
	log.Warn("skipping document", "path", "b.md")
	require.NoError(t, closeFn())

	assert.NotContains(t, term.String(), "rescanned")
	assert.Contains(t, term.String(), "skipping document")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "rescanned", rec["msg"])
	assert.Equal(t, "a.md", rec["path"])
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(t.Context(), slog.LevelError))
}
