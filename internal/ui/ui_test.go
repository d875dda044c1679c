package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage_Names(t *testing.T) {
	assert.Equal(t, "Scanning", StageScanning.String())
	assert.Equal(t, "Writing", StageWriting.String())
	assert.Equal(t, "INDEX", StageIndexing.Icon())
	assert.Equal(t, "DONE", StageComplete.Icon())
	assert.Equal(t, "Unknown", Stage(42).String())
}

func TestNewRenderer_NonTTYIsPlain(t *testing.T) {
	// Given: a buffer, which is never a terminal
	var buf bytes.Buffer

	// When: asking for a renderer
	r := NewRenderer(NewConfig(&buf, WithRootDir("/notes")))

	// Then: the plain renderer is chosen
	_, ok := r.(*PlainRenderer)
	assert.True(t, ok)
}

func TestNewTUIRenderer_RequiresTTY(t *testing.T) {
	_, err := NewTUIRenderer(NewConfig(&bytes.Buffer{}))
	assert.Error(t, err)
}

func TestPlainRenderer_Output(t *testing.T) {
	// Given: a plain renderer on a buffer
	var buf bytes.Buffer
	r := NewPlainRenderer(NewConfig(&buf, WithForcePlain(true)))
	require.NoError(t, r.Start(t.Context()))

	// When: a build reports progress, a skip and completion
	r.UpdateProgress(ProgressEvent{Stage: StageScanning, Message: "/notes"})
	r.UpdateProgress(ProgressEvent{Stage: StageIndexing, Current: 2, Total: 3, CurrentFile: "b.txt"})
	r.UpdateProgress(ProgressEvent{Stage: StageIndexing})
	r.AddError(ErrorEvent{File: "bad.docx", Err: errors.New("zip: not a valid zip file"), IsWarn: true})
	r.Complete(CompletionStats{Documents: 2, Skipped: 1, Terms: 7, Duration: 1500 * time.Millisecond, Warnings: 1})
	require.NoError(t, r.Stop())

	// Then: one line per event
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "[SCAN] /notes", lines[0])
	assert.Equal(t, "[INDEX] 2/3 - b.txt", lines[1])
	assert.Equal(t, "WARN: bad.docx: zip: not a valid zip file", lines[2])
	assert.Equal(t, "Complete: 2 documents, 7 terms indexed in 1.5s, 1 skipped (0 errors, 1 warnings)", lines[3])
}

func TestBuildModel_TracksEvents(t *testing.T) {
	m := newBuildModel("/notes")
	m.styles = NoColorStyles()

	m.Update(progressMsg{Stage: StageIndexing, Current: 1, Total: 4, CurrentFile: "a.txt"})
	m.Update(errorMsg{Err: errors.New("x"), IsWarn: true})
	m.Update(errorMsg{Err: errors.New("y")})

	assert.Equal(t, StageIndexing, m.stage)
	assert.Equal(t, 1, m.warnings)
	assert.Equal(t, 1, m.errors)

	view := m.View()
	assert.Contains(t, view, "NoteSearch Indexer • /notes")
	assert.Contains(t, view, "1 / 4 documents")
	assert.Contains(t, view, "a.txt")
}

func TestBuildModel_CompleteQuits(t *testing.T) {
	m := newBuildModel("")
	m.styles = NoColorStyles()

	_, cmd := m.Update(completeMsg{Documents: 3, Terms: 9, Duration: 2 * time.Second})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Contains(t, m.View(), "Indexing Complete")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{12 * time.Second, "12s"},
		{2 * time.Minute, "2m"},
		{125 * time.Second, "2m 5s"},
		{90 * time.Minute, "1h 30m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}

func TestTruncateFilePath(t *testing.T) {
	assert.Equal(t, "a/b.txt", truncateFilePath("a/b.txt", 20))
	got := truncateFilePath("very/long/directory/name/file.txt", 20)
	assert.LessOrEqual(t, len(got), 20)
	assert.True(t, strings.HasSuffix(got, "/file.txt"))
	assert.True(t, strings.HasPrefix(got, "..."))
}
