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
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestSetup_WritesJSONToFileAndMirror(t *testing.T) {
	// Given: a config pointing at a temp file with a mirror buffer
	path := filepath.Join(t.TempDir(), "logs", "test.log")
	var mirror bytes.Buffer
	cfg := Config{Level: "debug", FilePath: path, MaxSizeMB: 1, MaxFiles: 2, Stderr: &mirror}

	// When: logging a record
	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)
	logger.Debug("index_started", slog.String("root", "/notes"))
	cleanup()

	// Then: the file holds a JSON record
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	assert.Equal(t, "index_started", rec["msg"])
	assert.Equal(t, "/notes", rec["root"])
	assert.Contains(t, mirror.String(), "index_started")
}

func TestSetup_LevelFiltersRecords(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := Setup(Config{Level: "warn", Stderr: &buf})
	require.NoError(t, err)
	defer cleanup()

	logger.Info("dropped")
	logger.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestRotatingWriter_RotatesAtLimit(t *testing.T) {
	// Given: a writer with a 1MB limit and two backups
	path := filepath.Join(t.TempDir(), "rot.log")
	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	chunk := []byte(strings.Repeat("x", 600*1024))

	// When: writing past the limit three times
	for i := 0; i < 3; i++ {
		_, err := w.Write(chunk)
		require.NoError(t, err)
	}

	// Then: the current file and two backups exist, no third backup
	assert.FileExists(t, path)
	assert.FileExists(t, path+".1")
	assert.FileExists(t, path+".2")
	assert.NoFileExists(t, path+".3")
}

func TestDefaultLogPath_UnderNotesearchDir(t *testing.T) {
	p := DefaultLogPath()
	assert.Equal(t, "notesearch.log", filepath.Base(p))
	assert.Contains(t, p, ".notesearch")
}
